package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/domain"
)

func newWorkshopService(
	repo *workshopRepoStub,
	participations *participationRepoStub,
	users *userRepoStub,
	history *historyRecorder,
	notifier *notifierStub,
) *WorkshopService {
	return NewWorkshopService(repo, participations, users, history, notifier, testLogger())
}

func TestWorkshopService_Create(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

	t.Run("derives end time and activates", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindFamilyByIDFn: func(ctx context.Context, id uint) (domain.Family, error) {
				return domain.Family{ID: id, Code: "climat"}, nil
			},
			CreateFn: func(ctx context.Context, w domain.Workshop) (domain.Workshop, error) {
				w.ID = 7
				return w, nil
			},
		}
		history := &historyRecorder{}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, history, &notifierStub{})

		got, err := svc.Create(ctx, 9, domain.Workshop{
			FamilyID: 3, Type: domain.TypeAtelier, Title: "Fresque",
			StartAt: start, ExtraDurationMinutes: 30, AudienceNumber: 12,
			// Caller-supplied EndAt is ignored.
			EndAt: start,
		})

		require.NoError(t, err)
		assert.Equal(t, uint(9), got.OrganizerID)
		assert.Equal(t, domain.WorkshopActive, got.LifecycleStatus)
		assert.Equal(t, start.Add(3*time.Hour+30*time.Minute), got.EndAt)
		assert.Equal(t, []domain.LogType{domain.LogWorkshopCreated}, history.typesLogged())
	})

	t.Run("formation is classified at creation", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindFamilyByIDFn: func(ctx context.Context, id uint) (domain.Family, error) {
				return domain.Family{ID: id}, nil
			},
			CreateFn: func(ctx context.Context, w domain.Workshop) (domain.Workshop, error) {
				return w, nil
			},
		}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, &historyRecorder{}, &notifierStub{})

		got, err := svc.Create(ctx, 9, domain.Workshop{
			FamilyID: 3, Type: domain.TypeFormationInitiale, Title: "Formation", StartAt: start,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ClassificationFormation, got.ClassificationStatus)
	})

	t.Run("remote modality clears the physical location", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindFamilyByIDFn: func(ctx context.Context, id uint) (domain.Family, error) {
				return domain.Family{ID: id}, nil
			},
			CreateFn: func(ctx context.Context, w domain.Workshop) (domain.Workshop, error) {
				return w, nil
			},
		}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, &historyRecorder{}, &notifierStub{})

		got, err := svc.Create(ctx, 9, domain.Workshop{
			FamilyID: 3, Type: domain.TypeAtelier, Title: "Fresque", StartAt: start,
			IsRemote: true, Location: "12 rue de la Paix", VisioLink: "https://meet.example.com/x",
		})

		require.NoError(t, err)
		assert.Empty(t, got.Location)
		assert.Equal(t, "https://meet.example.com/x", got.VisioLink)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		svc := newWorkshopService(&workshopRepoStub{}, &participationRepoStub{}, &userRepoStub{}, &historyRecorder{}, &notifierStub{})

		_, err := svc.Create(ctx, 9, domain.Workshop{Type: "conference"})
		require.ErrorIs(t, err, ErrInvalidWorkshopType)
	})
}

func TestWorkshopService_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the resolved tag", func(t *testing.T) {
		var stored domain.ClassificationStatus
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				return domain.Workshop{ID: id, Type: domain.TypeAtelier}, nil
			},
			UpdateClassificationFn: func(ctx context.Context, id uint, c domain.ClassificationStatus) error {
				stored = c
				return nil
			},
		}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, &historyRecorder{}, &notifierStub{})

		got, err := svc.Classify(ctx, 9, 7, domain.ClassificationPath{
			Audience:     domain.AudiencePro,
			Organization: domain.OrganizationEntreprise,
			Situation:    domain.SituationInterne,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ClassificationInterneEntreprise, got)
		assert.Equal(t, domain.ClassificationInterneEntreprise, stored)
	})

	t.Run("partial path stores nothing", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				return domain.Workshop{ID: id, Type: domain.TypeAtelier}, nil
			},
			UpdateClassificationFn: func(ctx context.Context, id uint, c domain.ClassificationStatus) error {
				t.Fatal("partial path must not be stored")
				return nil
			},
		}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, &historyRecorder{}, &notifierStub{})

		_, err := svc.Classify(ctx, 9, 7, domain.ClassificationPath{Audience: domain.AudiencePro})
		require.ErrorIs(t, err, ErrIncompleteClassification)
	})
}

func TestWorkshopService_Reschedule(t *testing.T) {
	ctx := context.Background()
	oldStart := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	newStart := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

	t.Run("notifies the roster and records the change", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				return domain.Workshop{ID: id, Type: domain.TypeAtelier, Title: "Fresque",
					StartAt: oldStart, DateConfirmationVersion: 1}, nil
			},
			RescheduleFn: func(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error) {
				assert.Equal(t, newStart.Add(3*time.Hour), endAt)
				return domain.Workshop{ID: id, Type: domain.TypeAtelier, Title: "Fresque",
					StartAt: startAt, EndAt: endAt, DateConfirmationVersion: expectedVersion + 1}, nil
			},
		}
		participations := &participationRepoStub{
			FindByWorkshopFn: func(ctx context.Context, workshopID uint) ([]domain.Participation, error) {
				return []domain.Participation{
					{UserID: 42, Role: domain.RoleParticipant, Status: domain.ParticipationPaye},
					{UserID: 9, Role: domain.RoleOrganisateur, Status: domain.ParticipationInscrit},
					{UserID: 43, Role: domain.RoleParticipant, Status: domain.ParticipationAnnule},
				}, nil
			},
		}
		users := &userRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.User, error) {
				return domain.User{ID: id, Email: "u@example.com"}, nil
			},
		}
		history := &historyRecorder{}
		notifier := &notifierStub{}
		svc := newWorkshopService(repo, participations, users, history, notifier)

		got, err := svc.Reschedule(ctx, 9, 7, newStart, 0, 1)

		require.NoError(t, err)
		assert.Equal(t, 2, got.DateConfirmationVersion)
		// Only the active participant is notified; the organizer and the
		// canceled row are skipped.
		require.Len(t, notifier.notified, 1)
		require.Len(t, notifier.notified[0], 1)
		assert.Equal(t, uint(42), notifier.notified[0][0].ID)
		assert.Equal(t, []domain.LogType{domain.LogDateChanged, domain.LogEmailSent}, history.typesLogged())
	})

	t.Run("stale version passes through", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				return domain.Workshop{ID: id, Type: domain.TypeAtelier, StartAt: oldStart}, nil
			},
			RescheduleFn: func(ctx context.Context, id uint, startAt, endAt time.Time, extraMinutes, expectedVersion int) (domain.Workshop, error) {
				return domain.Workshop{}, ErrStaleWorkshop
			},
		}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, &historyRecorder{}, &notifierStub{})

		_, err := svc.Reschedule(ctx, 9, 7, newStart, 0, 1)
		require.ErrorIs(t, err, ErrStaleWorkshop)
	})
}

func TestWorkshopService_Relocate(t *testing.T) {
	ctx := context.Background()

	repo := &workshopRepoStub{
		FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
			return domain.Workshop{ID: id, Title: "Fresque", Location: "Salle A",
				LocationConfirmationVersion: 0}, nil
		},
		RelocateFn: func(ctx context.Context, id uint, isRemote bool, location, visioLink, muralLink string, expectedVersion int) (domain.Workshop, error) {
			return domain.Workshop{ID: id, Title: "Fresque", IsRemote: isRemote,
				VisioLink: visioLink, LocationConfirmationVersion: expectedVersion + 1}, nil
		},
	}
	participations := &participationRepoStub{
		FindByWorkshopFn: func(ctx context.Context, workshopID uint) ([]domain.Participation, error) {
			return nil, nil
		},
	}
	history := &historyRecorder{}
	svc := newWorkshopService(repo, participations, &userRepoStub{}, history, &notifierStub{})

	got, err := svc.Relocate(ctx, 9, 7, true, "", "https://meet.example.com/x", "", 0)

	require.NoError(t, err)
	assert.Equal(t, 1, got.LocationConfirmationVersion)
	// An empty roster skips the email but still records the change.
	assert.Equal(t, []domain.LogType{domain.LogLocationChanged}, history.typesLogged())
}

func TestWorkshopService_Close(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

	workshop := func(id uint) domain.Workshop {
		w := domain.Workshop{ID: id, Type: domain.TypeAtelier, Title: "Fresque",
			StartAt: start, LifecycleStatus: domain.WorkshopActive}
		w.RecomputeEndAt()
		return w
	}

	t.Run("before the end it is a no-op", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				return workshop(id), nil
			},
			CloseFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				t.Fatal("close must not reach the store before the end time")
				return domain.Workshop{}, nil
			},
		}
		history := &historyRecorder{}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, history, &notifierStub{})
		svc.now = fixedClock(start.Add(time.Hour))

		got, err := svc.Close(ctx, 9, 7)

		require.NoError(t, err)
		assert.Equal(t, domain.WorkshopActive, got.LifecycleStatus)
		assert.Empty(t, history.entries)
	})

	t.Run("after the end it archives", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				return workshop(id), nil
			},
			CloseFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				w := workshop(id)
				w.LifecycleStatus = domain.WorkshopClosed
				return w, nil
			},
		}
		history := &historyRecorder{}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, history, &notifierStub{})
		svc.now = fixedClock(start.Add(24 * time.Hour))

		got, err := svc.Close(ctx, 9, 7)

		require.NoError(t, err)
		assert.Equal(t, domain.WorkshopClosed, got.LifecycleStatus)
		assert.Equal(t, []domain.LogType{domain.LogWorkshopClosed}, history.typesLogged())
	})

	t.Run("closing an already closed workshop is a no-op", func(t *testing.T) {
		repo := &workshopRepoStub{
			FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				w := workshop(id)
				w.LifecycleStatus = domain.WorkshopClosed
				return w, nil
			},
			CloseFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
				t.Fatal("close must not reach the store a second time")
				return domain.Workshop{}, nil
			},
		}
		history := &historyRecorder{}
		svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, history, &notifierStub{})
		svc.now = fixedClock(start.Add(24 * time.Hour))

		got, err := svc.Close(ctx, 9, 7)

		require.NoError(t, err)
		assert.Equal(t, domain.WorkshopClosed, got.LifecycleStatus)
		assert.Empty(t, history.entries)
	})
}

func TestWorkshopService_Cancel(t *testing.T) {
	ctx := context.Background()

	repo := &workshopRepoStub{
		CancelFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
			return domain.Workshop{ID: id, Title: "Fresque",
				LifecycleStatus: domain.WorkshopCanceled}, nil
		},
	}
	participations := &participationRepoStub{
		FindByWorkshopFn: func(ctx context.Context, workshopID uint) ([]domain.Participation, error) {
			return []domain.Participation{
				{UserID: 42, Role: domain.RoleParticipant, Status: domain.ParticipationInscrit},
			}, nil
		},
	}
	users := &userRepoStub{
		FindByIDFn: func(ctx context.Context, id uint) (domain.User, error) {
			return domain.User{ID: id}, nil
		},
	}
	history := &historyRecorder{}
	notifier := &notifierStub{}
	svc := newWorkshopService(repo, participations, users, history, notifier)

	got, err := svc.Cancel(ctx, 9, 7)

	require.NoError(t, err)
	assert.Equal(t, domain.WorkshopCanceled, got.LifecycleStatus)
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, []domain.LogType{domain.LogWorkshopCanceled, domain.LogEmailSent}, history.typesLogged())
}

func TestWorkshopService_History(t *testing.T) {
	ctx := context.Background()

	repo := &workshopRepoStub{
		FindByIDFn: func(ctx context.Context, id uint) (domain.Workshop, error) {
			return domain.Workshop{ID: id}, nil
		},
	}
	history := &historyRecorder{}
	history.entries = append(history.entries,
		domain.WorkshopHistoryLog{WorkshopID: 7, Type: domain.LogWorkshopCreated},
		domain.WorkshopHistoryLog{WorkshopID: 8, Type: domain.LogWorkshopCreated},
	)
	svc := newWorkshopService(repo, &participationRepoStub{}, &userRepoStub{}, history, &notifierStub{})

	entries, err := svc.History(ctx, 7)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(7), entries[0].WorkshopID)
}
