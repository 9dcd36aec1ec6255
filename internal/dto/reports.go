// Package dto defines the argument and result shapes passed between
// handlers and services.
package dto

import "github.com/upstats/earnings-backend/internal/models"

// ReportArgs identifies whose report to build and for which period.
// AccessToken and tenant scope come off the caller's session.
type ReportArgs struct {
	UserID              string
	AccessToken         string
	TenantID            string
	TenantIDs           []string
	FreelancerReference string
	Year                int
	Month               int // 1..12; zero means annual
	Net                 bool
	Debug               bool
}

// TimeEntry is one row of the hourly time report.
type TimeEntry struct {
	DateWorkedOn string  `json:"date_worked_on"`
	TotalCharges float64 `json:"total_charges"`
	TotalHours   float64 `json:"total_hours"`
	Memo         string  `json:"memo"`
	ClientName   string  `json:"client_name"`
}

// FetchDiagnostics records which upstream source produced the rows and
// what was tried along the way. Exposed only on debug requests.
type FetchDiagnostics struct {
	Source   models.Source `json:"source"`
	Attempts []string      `json:"attempts,omitempty"`
	RowCount int           `json:"row_count"`
}

// FixedPriceResult carries the normalized fixed-price transactions for
// one period together with fetch diagnostics.
type FixedPriceResult struct {
	Transactions []models.Transaction `json:"transactions"`
	Diagnostics  FetchDiagnostics     `json:"diagnostics"`
}

// CombinedEarning is the hourly+fixed roll-up for one period.
type CombinedEarning struct {
	Year          int                `json:"year"`
	Month         int                `json:"month,omitempty"`
	XAxis         []string           `json:"x_axis"`
	Hourly        []float64          `json:"hourly"`
	Fixed         []float64          `json:"fixed"`
	Combined      []float64          `json:"combined"`
	TotalEarning  float64            `json:"total_earning"`
	Charity       float64            `json:"charity"`
	ClientRows    []models.ClientRow `json:"client_rows"`
	ClientPie     []models.PiePoint  `json:"client_pie"`
	Title        string             `json:"title"`
	Diagnostics  *FetchDiagnostics  `json:"diagnostics,omitempty"`
}

// YearPoint is one year of the all-time series.
type YearPoint struct {
	Year   int     `json:"year"`
	Hourly float64 `json:"hourly"`
	Fixed  float64 `json:"fixed"`
	Total  float64 `json:"total"`
}

// AllTimeResult is the earnings-since-2010 view. UnknownRows carries
// rows that resisted classification or attribution, so unattributable
// amounts stay visible next to the totals.
type AllTimeResult struct {
	Years        []YearPoint          `json:"years"`
	TotalEarning float64              `json:"total_earning"`
	Charity      float64              `json:"charity"`
	UnknownRows  []models.Transaction `json:"unknown_rows,omitempty"`
}

// TxnRow is one display row of the transaction-history view.
type TxnRow struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	ClientName  string  `json:"client_name"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
}

// TxnHistoryResult is the earnings/fees/memberships/connects breakdown
// for one period. GrossSeries and NetSeries share XAxis: weeks for a
// month view, months for a year view, with per-bucket
// net = gross + fees.
type TxnHistoryResult struct {
	Year        int                `json:"year"`
	Month       int                `json:"month,omitempty"`
	XAxis       []string           `json:"x_axis"`
	GrossSeries []float64          `json:"gross_report"`
	NetSeries   []float64          `json:"net_report"`
	Rows        []TxnRow           `json:"rows"`
	Gross       float64            `json:"gross"`
	Fees        float64            `json:"fees"`
	Net         float64            `json:"net"`
	Memberships float64            `json:"memberships"`
	Connects    float64            `json:"connects"`
	Misc        float64            `json:"misc"`
	ClientRows  []models.ClientRow `json:"client_rows"`
	ClientPie   []models.PiePoint  `json:"client_pie"`
	ClientNames []string           `json:"client_names"`
}
