package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrRequirementNotMet is returned when evaluation is requested for a level
// the user has not unlocked.
var ErrRequirementNotMet = errors.New("role requirements not met")

// RoleLevel is one rung of a family's certification ladder.
type RoleLevel struct {
	ID       uint   `json:"id"`
	FamilyID uint   `json:"family_id"`
	Level    int    `json:"level"`
	Name     string `json:"name"`

	Requirement RoleRequirement `json:"requirement"`
}

// RoleRequirement declares the thresholds an organizer must clear to earn a
// level. Zero values mean "no threshold".
type RoleRequirement struct {
	ID          uint `json:"id"`
	RoleLevelID uint `json:"role_level_id"`

	MinWorkshopsTotal  int     `json:"min_workshops_total"`
	MinInPerson        int     `json:"min_in_person"`
	MinRemote          int     `json:"min_remote"`
	MinFeedbackCount   int     `json:"min_feedback_count"`
	MinFeedbackAverage float64 `json:"min_feedback_average"`

	// Formation-type codes that must each appear at least once in the
	// organizer's completed-formations set.
	RequiredFormations []WorkshopType `json:"required_formations"`
}

// OrganizerStats aggregates a user's closed workshops as organizer within
// one family, plus the externally sourced feedback aggregate.
type OrganizerStats struct {
	TotalClosed         int                   `json:"total_closed"`
	InPerson            int                   `json:"in_person"`
	Remote              int                   `json:"remote"`
	FeedbackCount       int                   `json:"feedback_count"`
	FeedbackAverage     float64               `json:"feedback_average"`
	CompletedFormations map[WorkshopType]bool `json:"completed_formations"`
}

// AccumulateStats folds closed workshops organized by the user into stats.
// Only lifecycle_status=closed rows may be passed in; the caller filters.
func AccumulateStats(workshops []Workshop, attendedFormations []WorkshopType, feedbackCount int, feedbackAverage float64) OrganizerStats {
	stats := OrganizerStats{
		FeedbackCount:       feedbackCount,
		FeedbackAverage:     feedbackAverage,
		CompletedFormations: make(map[WorkshopType]bool),
	}
	for _, w := range workshops {
		stats.TotalClosed++
		if w.IsRemote {
			stats.Remote++
		} else {
			stats.InPerson++
		}
	}
	for _, t := range attendedFormations {
		stats.CompletedFormations[t] = true
	}
	return stats
}

// shortfall is one unmet threshold; severity is the missing fraction of the
// threshold, in (0, 1].
type shortfall struct {
	reason   string
	severity float64
}

func countShortfall(format string, have, want int) *shortfall {
	if have >= want {
		return nil
	}
	return &shortfall{
		reason:   fmt.Sprintf(format, want-have, have, want),
		severity: float64(want-have) / float64(want),
	}
}

// requirementCheck is one independent predicate over the statistics, nil
// when met. Checks combine with AND; new requirement kinds slot in without
// touching the ladder walk.
type requirementCheck func(req RoleRequirement, stats OrganizerStats) *shortfall

var requirementChecks = []requirementCheck{
	func(req RoleRequirement, stats OrganizerStats) *shortfall {
		return countShortfall("%d more closed workshops needed (%d/%d)",
			stats.TotalClosed, req.MinWorkshopsTotal)
	},
	func(req RoleRequirement, stats OrganizerStats) *shortfall {
		return countShortfall("%d more in-person workshops needed (%d/%d)",
			stats.InPerson, req.MinInPerson)
	},
	func(req RoleRequirement, stats OrganizerStats) *shortfall {
		return countShortfall("%d more remote workshops needed (%d/%d)",
			stats.Remote, req.MinRemote)
	},
	func(req RoleRequirement, stats OrganizerStats) *shortfall {
		return countShortfall("%d more participant feedbacks needed (%d/%d)",
			stats.FeedbackCount, req.MinFeedbackCount)
	},
	func(req RoleRequirement, stats OrganizerStats) *shortfall {
		if req.MinFeedbackAverage == 0 || stats.FeedbackAverage >= req.MinFeedbackAverage {
			return nil
		}
		return &shortfall{
			reason: fmt.Sprintf("feedback average %.1f below required %.1f",
				stats.FeedbackAverage, req.MinFeedbackAverage),
			severity: (req.MinFeedbackAverage - stats.FeedbackAverage) / req.MinFeedbackAverage,
		}
	},
	func(req RoleRequirement, stats OrganizerStats) *shortfall {
		// A missing formation cannot be partially satisfied.
		for _, f := range req.RequiredFormations {
			if !stats.CompletedFormations[f] {
				return &shortfall{
					reason:   fmt.Sprintf("formation %q not completed", f),
					severity: 1,
				}
			}
		}
		return nil
	},
}

// checkRequirement runs every predicate and collects shortfalls ordered most
// binding first, by missing fraction of the threshold; callers display the
// first entry as the headline reason.
func checkRequirement(req RoleRequirement, stats OrganizerStats) (bool, []string) {
	var shortfalls []shortfall
	for _, check := range requirementChecks {
		if s := check(req, stats); s != nil {
			shortfalls = append(shortfalls, *s)
		}
	}
	if len(shortfalls) == 0 {
		return true, nil
	}

	sort.SliceStable(shortfalls, func(i, j int) bool {
		return shortfalls[i].severity > shortfalls[j].severity
	})

	reasons := make([]string, len(shortfalls))
	for i, s := range shortfalls {
		reasons[i] = s.reason
	}
	return false, reasons
}

// LevelStatus is the evaluation outcome for one rung.
type LevelStatus struct {
	Level    RoleLevel `json:"level"`
	Unlocked bool      `json:"unlocked"`
	// Reasons is set on the first locked level only, naming the unmet
	// thresholds, most binding first.
	Reasons []string `json:"reasons,omitempty"`
}

// Progression is the full ladder evaluation for a user and family.
type Progression struct {
	FamilyID     uint           `json:"family_id"`
	Stats        OrganizerStats `json:"stats"`
	Levels       []LevelStatus  `json:"levels"`
	CurrentLevel int            `json:"current_level"`
	EvaluatedAt  time.Time      `json:"evaluated_at"`
}

// EvaluateLadder walks levels in ascending order. A level unlocks only if
// its own thresholds are met and every lower level is unlocked: the ladder
// is monotonic, levels cannot be skipped. The first locked level carries
// the unmet-threshold reasons; all higher levels are locked without being
// evaluated further.
func EvaluateLadder(familyID uint, levels []RoleLevel, stats OrganizerStats, now time.Time) Progression {
	prog := Progression{
		FamilyID:    familyID,
		Stats:       stats,
		EvaluatedAt: now,
	}

	blocked := false
	for _, level := range levels {
		status := LevelStatus{Level: level}
		if !blocked {
			ok, shortfalls := checkRequirement(level.Requirement, stats)
			if ok {
				status.Unlocked = true
				prog.CurrentLevel = level.Level
			} else {
				blocked = true
				status.Reasons = shortfalls
			}
		}
		prog.Levels = append(prog.Levels, status)
	}

	return prog
}
