package domain

type TicketType string

const (
	TicketNormal  TicketType = "normal"
	TicketReduit  TicketType = "reduit"
	TicketGratuit TicketType = "gratuit"
	TicketPro     TicketType = "pro"
)

// TicketOption is one purchasable ticket for a classification/workshop-kind
// pair. Prices are euro cents.
type TicketOption struct {
	Type  TicketType `json:"type"`
	Price int        `json:"price"`
}

// Grand-public ateliers sell individual tickets; pro classifications buy a
// single session ticket whose price depends on the structure; formations
// are priced per tier.
var grandPublicOptions = []TicketOption{
	{Type: TicketNormal, Price: 1500},
	{Type: TicketReduit, Price: 900},
	{Type: TicketGratuit, Price: 0},
}

var proSessionPrices = map[ClassificationStatus]int{
	ClassificationInterneAsso:       25000,
	ClassificationExterneAsso:       30000,
	ClassificationInterneEntreprise: 40000,
	ClassificationExterneEntreprise: 48000,
	ClassificationInterneProfs:      20000,
	ClassificationExterneProfs:      24000,
	ClassificationInterneEleves:     0,
	ClassificationExterneEleves:     0,
	ClassificationInterneAgents:     20000,
	ClassificationExterneAgents:     24000,
	ClassificationInterneElus:       20000,
	ClassificationExterneElus:       24000,
}

var formationPrices = map[WorkshopType]int{
	TypeFormationInitiale:          25000,
	TypeFormationApprofondissement: 35000,
	TypeFormationAnimation:         30000,
}

// TicketOptions returns the purchasable tickets for a resolved
// classification on a given workshop type. An unresolved classification has
// no options.
func TicketOptions(c ClassificationStatus, t WorkshopType) []TicketOption {
	switch {
	case c == ClassificationNone:
		return nil
	case c == ClassificationFormation || t.IsFormation():
		price, ok := formationPrices[t]
		if !ok {
			return nil
		}
		return []TicketOption{{Type: TicketPro, Price: price}}
	case c == ClassificationGrandPublic:
		opts := make([]TicketOption, len(grandPublicOptions))
		copy(opts, grandPublicOptions)
		return opts
	default:
		price, ok := proSessionPrices[c]
		if !ok {
			return nil
		}
		if price == 0 {
			return []TicketOption{{Type: TicketGratuit, Price: 0}}
		}
		return []TicketOption{{Type: TicketPro, Price: price}}
	}
}

// PriceFor looks a specific ticket type up in the options for the pair.
// The boolean is false when that ticket is not sold for this audience.
func PriceFor(c ClassificationStatus, t WorkshopType, ticket TicketType) (int, bool) {
	for _, opt := range TicketOptions(c, t) {
		if opt.Type == ticket {
			return opt.Price, true
		}
	}
	return 0, false
}

// DefaultTicket picks the option a registration starts from: the first
// (full-price) option of the pair.
func DefaultTicket(c ClassificationStatus, t WorkshopType) (TicketOption, bool) {
	opts := TicketOptions(c, t)
	if len(opts) == 0 {
		return TicketOption{}, false
	}
	return opts[0], true
}
