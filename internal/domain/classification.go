package domain

import "errors"

// ErrIncompleteClassification is returned while the questionnaire is missing
// a step that the chosen branch requires.
var ErrIncompleteClassification = errors.New("classification questionnaire is incomplete")

type ClassificationStatus string

const (
	ClassificationNone        ClassificationStatus = ""
	ClassificationGrandPublic ClassificationStatus = "grand_public"
	ClassificationFormation   ClassificationStatus = "formation"

	ClassificationInterneAsso       ClassificationStatus = "interne_asso"
	ClassificationExterneAsso       ClassificationStatus = "externe_asso"
	ClassificationInterneEntreprise ClassificationStatus = "interne_entreprise"
	ClassificationExterneEntreprise ClassificationStatus = "externe_entreprise"
	ClassificationInterneProfs      ClassificationStatus = "interne_profs"
	ClassificationExterneProfs      ClassificationStatus = "externe_profs"
	ClassificationInterneEleves     ClassificationStatus = "interne_eleves"
	ClassificationExterneEleves     ClassificationStatus = "externe_eleves"
	ClassificationInterneAgents     ClassificationStatus = "interne_agents"
	ClassificationExterneAgents     ClassificationStatus = "externe_agents"
	ClassificationInterneElus       ClassificationStatus = "interne_elus"
	ClassificationExterneElus       ClassificationStatus = "externe_elus"
)

// Questionnaire answers. Empty string means "not answered yet".
const (
	AudienceGrandPublic = "grand_public"
	AudiencePro         = "pro"

	OrganizationAsso          = "asso"
	OrganizationEntreprise    = "entreprise"
	OrganizationEnseignement  = "enseignement"
	OrganizationPouvoirPublic = "pouvoir_public"

	SubAudienceProfs  = "profs"
	SubAudienceEleves = "eleves"
	SubAudienceAgents = "agents"
	SubAudienceElus   = "elus"

	SituationInterne = "interne"
	SituationExterne = "externe"
)

// ClassificationPath is the questionnaire state accumulated so far:
// audience, then (for pros) organization, then for some organizations a
// sub-audience, then the situation.
type ClassificationPath struct {
	Audience     string `json:"audience"`
	Organization string `json:"organization"`
	SubAudience  string `json:"sub_audience"`
	Situation    string `json:"situation"`
}

// terminal segment of the compound tag, per organization branch.
var organizationSegments = map[string]string{
	OrganizationAsso:       "asso",
	OrganizationEntreprise: "entreprise",
}

var subAudienceSegments = map[string]map[string]string{
	OrganizationEnseignement: {
		SubAudienceProfs:  "profs",
		SubAudienceEleves: "eleves",
	},
	OrganizationPouvoirPublic: {
		SubAudienceAgents: "agents",
		SubAudienceElus:   "elus",
	},
}

// NeedsSubAudience reports whether the chosen organization branch requires
// the sub-audience step before the situation step.
func NeedsSubAudience(organization string) bool {
	_, ok := subAudienceSegments[organization]
	return ok
}

// Resolve maps the accumulated path to a classification tag. A partial path
// resolves to ErrIncompleteClassification, never to a default tag: callers
// must be able to tell "not yet classified" from "classified as public".
func (p ClassificationPath) Resolve() (ClassificationStatus, error) {
	switch p.Audience {
	case AudienceGrandPublic:
		return ClassificationGrandPublic, nil
	case AudiencePro:
		// fall through to the pro branch below
	case "":
		return ClassificationNone, ErrIncompleteClassification
	default:
		return ClassificationNone, ErrIncompleteClassification
	}

	var segment string
	switch {
	case p.Organization == "":
		return ClassificationNone, ErrIncompleteClassification
	case NeedsSubAudience(p.Organization):
		if p.SubAudience == "" {
			return ClassificationNone, ErrIncompleteClassification
		}
		seg, ok := subAudienceSegments[p.Organization][p.SubAudience]
		if !ok {
			return ClassificationNone, ErrIncompleteClassification
		}
		segment = seg
	default:
		seg, ok := organizationSegments[p.Organization]
		if !ok {
			return ClassificationNone, ErrIncompleteClassification
		}
		segment = seg
	}

	switch p.Situation {
	case SituationInterne:
		return ClassificationStatus("interne_" + segment), nil
	case SituationExterne:
		return ClassificationStatus("externe_" + segment), nil
	default:
		return ClassificationNone, ErrIncompleteClassification
	}
}

// ResolveClassification applies the formation bypass: a formation-type
// workshop skips the questionnaire entirely.
func ResolveClassification(workshopType WorkshopType, path ClassificationPath) (ClassificationStatus, error) {
	if workshopType.IsFormation() {
		return ClassificationFormation, nil
	}
	return path.Resolve()
}

var classificationLabels = map[ClassificationStatus]string{
	ClassificationGrandPublic:       "Grand public",
	ClassificationFormation:         "Formation",
	ClassificationInterneAsso:       "Interne - Association",
	ClassificationExterneAsso:       "Externe - Association",
	ClassificationInterneEntreprise: "Interne - Entreprise",
	ClassificationExterneEntreprise: "Externe - Entreprise",
	ClassificationInterneProfs:      "Interne - Enseignants",
	ClassificationExterneProfs:      "Externe - Enseignants",
	ClassificationInterneEleves:     "Interne - Élèves",
	ClassificationExterneEleves:     "Externe - Élèves",
	ClassificationInterneAgents:     "Interne - Agents publics",
	ClassificationExterneAgents:     "Externe - Agents publics",
	ClassificationInterneElus:       "Interne - Élus",
	ClassificationExterneElus:       "Externe - Élus",
}

// Label returns the display label for a resolved tag.
func (c ClassificationStatus) Label() string {
	return classificationLabels[c]
}

// IsPro reports whether the tag came out of the professional branch.
func (c ClassificationStatus) IsPro() bool {
	switch c {
	case ClassificationNone, ClassificationGrandPublic, ClassificationFormation:
		return false
	}
	return true
}
