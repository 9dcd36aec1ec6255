package extract

import (
	"strings"

	"github.com/upstats/earnings-backend/internal/models"
)

var withdrawalMarkers = []string{
	"withdrawal", "appayment", "withdraw", "payout", "transfer", "disbursement",
}

// IsWithdrawal reports whether the kind/description text marks a
// withdrawal or balance transfer. Those rows never count as earnings
// or fees.
func IsWithdrawal(kind, description string) bool {
	text := strings.ToLower(kind + " " + description)
	for _, marker := range withdrawalMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// IsHourlyCharge detects hourly-billing rows by keyword or by the
// "N hrs @" / "/hr" rate patterns that appear in invoice memos.
func IsHourlyCharge(kind, description string) bool {
	text := strings.ToLower(kind + " " + description)
	if strings.Contains(text, "hourly") {
		return true
	}
	if strings.Contains(text, "hrs @") || strings.Contains(text, "hr @") || strings.Contains(text, "/hr") {
		return true
	}
	return false
}

// feeText is the classification text for fee detection: type, subtype
// and both description variants.
func feeText(t models.Transaction) string {
	return strings.ToLower(t.RawKind + " " + t.Subtype + " " + t.Description + " " + t.DescriptionUI)
}

// subtypeText omits the raw kind; membership and connects matching
// keys off subtype and descriptions only.
func subtypeText(t models.Transaction) string {
	return strings.ToLower(t.Subtype + " " + t.Description + " " + t.DescriptionUI)
}

// IsFee reports whether the transaction is a marketplace service fee.
// Connects and membership charges are carved out first; a bare "fee"
// mention only counts when the amount is an actual negative charge.
func IsFee(t models.Transaction) bool {
	text := feeText(t)
	if strings.Contains(text, "connect") || strings.Contains(text, "membership") || strings.Contains(text, "subscription") {
		return false
	}
	if strings.Contains(text, "service fee") || strings.Contains(text, "upwork fee") || strings.Contains(text, "marketplace fee") {
		return true
	}
	if strings.Contains(text, "service_fee") || strings.Contains(text, "upwork_fee") {
		return true
	}
	if strings.Contains(text, "fee") {
		return t.Amount < 0
	}
	return false
}

// IsEarning reports whether the transaction is a positive earning row
// (hourly invoice or fixed/bonus/milestone payment).
func IsEarning(t models.Transaction) bool {
	if IsFee(t) {
		return false
	}
	if t.Amount <= 0 {
		return false
	}
	text := feeText(t)
	if strings.Contains(text, "apinvoice") || strings.Contains(text, "hourly") {
		return true
	}
	for _, key := range []string{"fixed", "bonus", "milestone"} {
		if strings.Contains(text, key) {
			return true
		}
	}
	return false
}

// IsMembership matches plan subscription charges, excluding connects.
func IsMembership(t models.Transaction) bool {
	text := subtypeText(t)
	if strings.Contains(text, "connect") {
		return false
	}
	if strings.Contains(text, "subscription") {
		return true
	}
	return strings.Contains(text, "membership") || strings.Contains(text, "freelancer plus")
}

// IsConnects matches charges for bidding credits, including the
// specific "fees for additional connects" billing line.
func IsConnects(t models.Transaction) bool {
	text := subtypeText(t)
	if strings.Contains(text, "connect") {
		return true
	}
	return strings.Contains(text, "fees for additional connects")
}

// IsFixedBonusContext reports whether a fee row belongs to the
// fixed-price pipeline (vs hourly), by escrow/fixed/bonus/milestone
// context in its text.
func IsFixedBonusContext(t models.Transaction) bool {
	text := subtypeText(t)
	for _, key := range []string{"fixed", "bonus", "milestone", "escrow"} {
		if strings.Contains(text, key) {
			return true
		}
	}
	return false
}

// Classify assigns the canonical kind tag. Categories are evaluated in
// priority order so a row lands in exactly one bucket.
func Classify(t models.Transaction) models.Kind {
	switch {
	case IsWithdrawal(t.RawKind, t.Description):
		return models.KindWithdrawal
	case IsHourlyCharge(t.RawKind, t.Description):
		return models.KindHourly
	case IsFee(t):
		return models.KindServiceFee
	case IsMembership(t):
		return models.KindMembership
	case IsConnects(t):
		return models.KindConnects
	case IsEarning(t):
		return models.KindEarning
	default:
		return models.KindUnknown
	}
}
