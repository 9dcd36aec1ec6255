package models

// Source identifies which upstream endpoint produced a transaction.
// It is carried for diagnostics only; nothing branches on it after
// extraction.
type Source string

const (
	SourceGraphQL    Source = "graphql"
	SourceBillings   Source = "billings"
	SourceFinReports Source = "finreports"
)

// Kind is the classification tag assigned to a canonical transaction.
type Kind string

const (
	KindWithdrawal Kind = "withdrawal"
	KindHourly     Kind = "hourly"
	KindServiceFee Kind = "service_fee"
	KindMembership Kind = "membership"
	KindConnects   Kind = "connects"
	KindEarning    Kind = "earning"
	KindUnknown    Kind = "unknown"
)

// Transaction is the canonical record every upstream row is normalized
// into. Once built it is never mutated; aggregation only derives totals.
type Transaction struct {
	OccurredAt    string  `json:"occurredAt"` // YYYY-MM-DD when parseable, raw string otherwise
	Amount        float64 `json:"amount"`     // signed; positive inflow, negative charge
	Currency      string  `json:"currency,omitempty"`
	ClientName    string  `json:"clientName"`
	RawKind       string  `json:"kind,omitempty"` // upstream type/category text
	Subtype       string  `json:"subtype,omitempty"`
	Description   string  `json:"description,omitempty"`
	DescriptionUI string  `json:"descriptionUi,omitempty"`
	Source        Source  `json:"source,omitempty"`
}
