package models

// DetailRow is a single earning line shown under a graph.
type DetailRow struct {
	Date        string  `json:"date"`
	Week        string  `json:"week,omitempty"`
	Month       string  `json:"month,omitempty"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	ClientName  string  `json:"clientName"`
}

// MonthPoint is one month of an annual series, kept in the shape the
// chart layer consumes.
type MonthPoint struct {
	Y     float64 `json:"y"`
	Month string  `json:"month"`
}

// ClientRow is a per-client total with its share of the period sum.
type ClientRow struct {
	Name    string  `json:"name"`
	Total   float64 `json:"total"`
	Percent float64 `json:"percent,omitempty"`
}

// PiePoint is the {name,y} pair consumed by pie/summary charts.
type PiePoint struct {
	Name string  `json:"name"`
	Y    float64 `json:"y"`
}

// Report is the aggregate view produced for a requested period.
// Exactly one of MonthSeries (annual) or Series (monthly weeks,
// all-time years, weekly hours) carries the y values.
type Report struct {
	Year            string       `json:"year,omitempty"`
	Month           string       `json:"month,omitempty"`
	XAxis           []string     `json:"x_axis"`
	Series          []float64    `json:"report,omitempty"`
	MonthSeries     []MonthPoint `json:"month_report,omitempty"`
	Detail          []DetailRow  `json:"detail_earning,omitempty"`
	ServiceFees     []DetailRow  `json:"service_fee_rows,omitempty"`
	ServiceFeeTotal float64      `json:"service_fee_total,omitempty"`
	TotalEarning    float64      `json:"total_earning"`
	Charity         float64      `json:"charity"`
	Title           string       `json:"title"`
}

// HoursReport is the weekly time report for one year.
type HoursReport struct {
	Year          string      `json:"year"`
	XAxis         []string    `json:"x_axis"`
	Series        []float64   `json:"report"`
	TotalHours    float64     `json:"total_hours"`
	RawTotalHours float64     `json:"raw_total_hours"`
	AvgWeek       float64     `json:"avg_week"`
	WorkStatus    string      `json:"work_status"`
	Title         string      `json:"title"`
	ClientRows    []ClientRow `json:"client_rows"`
	ClientPie     []PiePoint  `json:"client_pie_data"`
	RowCount      int         `json:"row_count"`
	MinDate       string      `json:"min_date,omitempty"`
	MaxDate       string      `json:"max_date,omitempty"`
}
