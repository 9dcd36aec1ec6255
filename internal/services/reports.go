package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/extract"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/period"
	"github.com/upstats/earnings-backend/pkg/logger"
)

// charityRate is the share of total earnings suggested for donation.
const charityRate = 0.025

// excludedClientLabels mark rows that look like client earnings after
// extraction but are platform charges. Matched as substrings of the
// combined client name and description, lowercased.
var excludedClientLabels = []string{
	"fees for additional connects",
	"fees for freelancer plus membership",
	"fees for agency plus membership",
	"subscription renewal charges",
	"payment - paypal nomorcantikxplor@yahoo.com",
}

func isPlatformCharge(clientName, description string) bool {
	haystack := strings.ToLower(clientName + " " + description)
	for _, label := range excludedClientLabels {
		if strings.Contains(haystack, label) {
			return true
		}
	}
	return false
}

type transactionFetcher interface {
	FetchFixedPrice(ctx context.Context, args dto.ReportArgs, start, end time.Time) (dto.FixedPriceResult, error)
	FetchTransactionHistoryRows(ctx context.Context, args dto.ReportArgs, start, end time.Time) ([]models.Transaction, error)
	FetchServiceFeeHistory(ctx context.Context, args dto.ReportArgs, start, end time.Time) ([]models.Transaction, error)
}

type timeEntryFetcher interface {
	EntriesForYear(ctx context.Context, args dto.ReportArgs) ([]dto.TimeEntry, error)
	EntriesForMonth(ctx context.Context, args dto.ReportArgs) ([]dto.TimeEntry, error)
	WeeklyEntries(ctx context.Context, args dto.ReportArgs) ([]dto.TimeEntry, error)
}

type ReportService struct {
	transactions transactionFetcher
	timeReports  timeEntryFetcher
	now          func() time.Time
}

func NewReportService(transactions transactionFetcher, timeReports timeEntryFetcher) *ReportService {
	return &ReportService{
		transactions: transactions,
		timeReports:  timeReports,
		now:          time.Now,
	}
}

// HourlyYear builds the hourly-earnings report for one calendar year,
// bucketed by month.
func (s *ReportService) HourlyYear(ctx context.Context, args dto.ReportArgs) (models.Report, error) {
	entries, err := s.timeReports.EntriesForYear(ctx, args)
	if err != nil {
		return models.Report{}, err
	}

	series := make([]float64, 12)
	detail := make([]models.DetailRow, 0, len(entries))
	for _, e := range entries {
		d, ok := parseEntryDate(e)
		if !ok || d.Year() != args.Year {
			continue
		}
		series[int(d.Month())-1] += e.TotalCharges
		detail = append(detail, models.DetailRow{
			Date:        period.DisplayDateString(e.DateWorkedOn),
			Month:       period.MonthNames[int(d.Month())-1],
			Amount:      round2(e.TotalCharges),
			Description: entryDescription(e),
			ClientName:  e.ClientName,
		})
	}

	report := s.assembleReport(args, period.MonthNames[:], series, detail,
		fmt.Sprintf("Hourly earnings %d", args.Year))
	start, end := period.YearBounds(args.Year)
	report.ServiceFees, report.ServiceFeeTotal = s.serviceFeeSummary(ctx, args, start, end)
	return report, nil
}

// HourlyMonth builds the hourly-earnings report for one month,
// bucketed by Monday-aligned weeks.
func (s *ReportService) HourlyMonth(ctx context.Context, args dto.ReportArgs) (models.Report, error) {
	entries, err := s.timeReports.EntriesForMonth(ctx, args)
	if err != nil {
		return models.Report{}, err
	}

	ranges := period.MonthWeekRanges(args.Year, args.Month)
	labels := weekLabels(ranges)
	series := make([]float64, len(ranges))
	detail := make([]models.DetailRow, 0, len(entries))
	for _, e := range entries {
		d, ok := parseEntryDate(e)
		if !ok {
			continue
		}
		for i, r := range ranges {
			if period.Contains(r, d) {
				series[i] += e.TotalCharges
				break
			}
		}
		detail = append(detail, models.DetailRow{
			Date:        period.DisplayDateString(e.DateWorkedOn),
			Week:        period.WeekLabelFor(ranges, d),
			Amount:      round2(e.TotalCharges),
			Description: entryDescription(e),
			ClientName:  e.ClientName,
		})
	}

	report := s.assembleReport(args, labels, series, detail,
		fmt.Sprintf("Hourly earnings %s %d", period.MonthNames[args.Month-1], args.Year))
	start, end := period.MonthBounds(args.Year, args.Month)
	report.ServiceFees, report.ServiceFeeTotal = s.serviceFeeSummary(ctx, args, start, end)
	return report, nil
}

// serviceFeeSummary pulls the period's service-fee rows for display
// under the hourly views. Best effort: the hourly report stays usable
// when the history endpoint rejects the token scope.
func (s *ReportService) serviceFeeSummary(ctx context.Context, args dto.ReportArgs, start, end time.Time) ([]models.DetailRow, float64) {
	fees, err := s.transactions.FetchServiceFeeHistory(ctx, args, start, end)
	if err != nil {
		logger.FromContext(ctx).Warn("service fee summary unavailable", "error", err)
		return nil, 0
	}

	rows := make([]models.DetailRow, 0, len(fees))
	var total float64
	for _, t := range fees {
		amount := -math.Abs(t.Amount)
		total += amount
		rows = append(rows, models.DetailRow{
			Date:        period.DisplayDate(period.EffectiveDateAny(t), t.OccurredAt),
			Amount:      round2(amount),
			Description: txnDescription(t),
			ClientName:  t.ClientName,
		})
	}
	return rows, round2(total)
}

// FixedYear builds the fixed-price report for one calendar year.
func (s *ReportService) FixedYear(ctx context.Context, args dto.ReportArgs) (models.Report, error) {
	start, end := period.YearBounds(args.Year)
	result, err := s.transactions.FetchFixedPrice(ctx, args, start, end)
	if err != nil {
		return models.Report{}, err
	}

	series := make([]float64, 12)
	detail := make([]models.DetailRow, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		d := period.EffectiveDateAny(t)
		if d == nil || d.Year() != args.Year {
			continue
		}
		series[int(d.Month())-1] += t.Amount
		detail = append(detail, models.DetailRow{
			Date:        period.DisplayDate(d, t.OccurredAt),
			Month:       period.MonthNames[int(d.Month())-1],
			Amount:      round2(t.Amount),
			Description: txnDescription(t),
			ClientName:  t.ClientName,
		})
	}

	report := s.assembleReport(args, period.MonthNames[:], series, detail,
		fmt.Sprintf("Fixed-price earnings %d", args.Year))
	return report, nil
}

// FixedMonth builds the fixed-price report for one month, bucketed by
// Monday-aligned weeks. Rows whose work range ends in the month land
// in the week of the range end.
func (s *ReportService) FixedMonth(ctx context.Context, args dto.ReportArgs) (models.Report, error) {
	start, end := period.MonthBounds(args.Year, args.Month)
	result, err := s.transactions.FetchFixedPrice(ctx, args, start, end)
	if err != nil {
		return models.Report{}, err
	}

	ranges := period.MonthWeekRanges(args.Year, args.Month)
	labels := weekLabels(ranges)
	series := make([]float64, len(ranges))
	detail := make([]models.DetailRow, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		d := period.EffectiveDate(t, args.Year, args.Month)
		if d == nil {
			continue
		}
		for i, r := range ranges {
			if period.Contains(r, *d) {
				series[i] += t.Amount
				break
			}
		}
		detail = append(detail, models.DetailRow{
			Date:        period.DisplayDate(d, t.OccurredAt),
			Week:        period.WeekLabelFor(ranges, *d),
			Amount:      round2(t.Amount),
			Description: txnDescription(t),
			ClientName:  t.ClientName,
		})
	}

	return s.assembleReport(args, labels, series, detail,
		fmt.Sprintf("Fixed-price earnings %s %d", period.MonthNames[args.Month-1], args.Year)), nil
}

// WeeklyHours builds the hours-worked view for one year, bucketed by
// ISO week.
func (s *ReportService) WeeklyHours(ctx context.Context, args dto.ReportArgs) (models.HoursReport, error) {
	entries, err := s.timeReports.WeeklyEntries(ctx, args)
	if err != nil {
		return models.HoursReport{}, err
	}

	lastWeek := isoWeeksInYear(args.Year)
	series := make([]float64, lastWeek)
	labels := make([]string, lastWeek)
	for i := range labels {
		labels[i] = fmt.Sprintf("W%d", i+1)
	}

	clientHours := map[string]float64{}
	var rawTotal float64
	var minSeen, maxSeen *time.Time
	rows := 0
	for _, e := range entries {
		rawTotal += e.TotalHours
		rows++
		d, ok := parseEntryDate(e)
		if !ok {
			continue
		}
		if minSeen == nil || d.Before(*minSeen) {
			seen := d
			minSeen = &seen
		}
		if maxSeen == nil || d.After(*maxSeen) {
			seen := d
			maxSeen = &seen
		}
		_, week := d.ISOWeek()
		if week >= 1 && week <= lastWeek {
			series[week-1] += e.TotalHours
		}
		clientHours[e.ClientName] += e.TotalHours
	}

	var total float64
	for i, v := range series {
		series[i] = round2(v)
		total += v
	}
	total = round2(total)

	divisor := lastWeek
	if nowYear, nowWeek := s.now().ISOWeek(); nowYear == args.Year {
		divisor = nowWeek
	}
	if divisor < 1 {
		divisor = 1
	}
	avg := round2(total / float64(divisor))

	status := "success"
	switch {
	case avg < 20:
		status = "danger"
	case avg < 40:
		status = "warning"
	}

	clientRows, clientPie := clientBreakdown(clientHours)
	return models.HoursReport{
		Year:          strconv.Itoa(args.Year),
		XAxis:         labels,
		Series:        series,
		TotalHours:    total,
		RawTotalHours: round2(rawTotal),
		AvgWeek:       avg,
		WorkStatus:    status,
		Title:         fmt.Sprintf("Hours worked %d", args.Year),
		ClientRows:    clientRows,
		ClientPie:     clientPie,
		RowCount:      rows,
		MinDate:       period.DisplayDate(minSeen, ""),
		MaxDate:       period.DisplayDate(maxSeen, ""),
	}, nil
}

// TotalEarning combines hourly and fixed-price earnings for one
// period into a single series plus a per-client breakdown.
func (s *ReportService) TotalEarning(ctx context.Context, args dto.ReportArgs) (dto.CombinedEarning, error) {
	hourly, err := s.hourlyReport(ctx, args)
	if err != nil {
		return dto.CombinedEarning{}, err
	}
	fixed, fixedTxns, diags, err := s.fixedReport(ctx, args)
	if err != nil {
		return dto.CombinedEarning{}, err
	}

	combined := make([]float64, len(hourly.Series))
	for i := range combined {
		var f float64
		if i < len(fixed.Series) {
			f = fixed.Series[i]
		}
		combined[i] = round2(hourly.Series[i] + f)
	}

	clientTotals := map[string]float64{}
	for _, row := range hourly.Detail {
		if isPlatformCharge(row.ClientName, row.Description) {
			continue
		}
		clientTotals[row.ClientName] += row.Amount
	}
	for _, t := range fixedTxns {
		if isPlatformCharge(t.ClientName, txnDescription(t)) {
			continue
		}
		clientTotals[t.ClientName] += t.Amount
	}
	clientRows, clientPie := clientBreakdown(clientTotals)

	total := round2(hourly.TotalEarning + fixed.TotalEarning)
	result := dto.CombinedEarning{
		Year:         args.Year,
		Month:        args.Month,
		XAxis:        hourly.XAxis,
		Hourly:       hourly.Series,
		Fixed:        fixed.Series,
		Combined:     combined,
		TotalEarning: total,
		Charity:      round2(total * charityRate),
		ClientRows:   clientRows,
		ClientPie:    clientPie,
		Title:        combinedTitle(args),
	}
	if args.Debug {
		result.Diagnostics = &diags
	}
	return result, nil
}

// ClientMonthDetail lists one client's earning rows, hourly and
// fixed-price, for a single month.
func (s *ReportService) ClientMonthDetail(ctx context.Context, args dto.ReportArgs, client string) (models.Report, error) {
	hourly, err := s.HourlyMonth(ctx, args)
	if err != nil {
		return models.Report{}, err
	}
	fixed, err := s.FixedMonth(ctx, args)
	if err != nil {
		return models.Report{}, err
	}

	detail := make([]models.DetailRow, 0)
	var total float64
	for _, row := range hourly.Detail {
		if strings.EqualFold(row.ClientName, client) {
			detail = append(detail, row)
			total += row.Amount
		}
	}
	for _, row := range fixed.Detail {
		if strings.EqualFold(row.ClientName, client) {
			detail = append(detail, row)
			total += row.Amount
		}
	}

	total = round2(total)
	return models.Report{
		Year:         strconv.Itoa(args.Year),
		Month:        monthName(args.Month),
		Detail:       detail,
		TotalEarning: total,
		Charity:      round2(total * charityRate),
		Title:        fmt.Sprintf("%s earnings %s %d", client, monthName(args.Month), args.Year),
	}, nil
}

func (s *ReportService) hourlyReport(ctx context.Context, args dto.ReportArgs) (models.Report, error) {
	if args.Month > 0 {
		return s.HourlyMonth(ctx, args)
	}
	return s.HourlyYear(ctx, args)
}

func (s *ReportService) fixedReport(ctx context.Context, args dto.ReportArgs) (models.Report, []models.Transaction, dto.FetchDiagnostics, error) {
	var start, end time.Time
	if args.Month > 0 {
		start, end = period.MonthBounds(args.Year, args.Month)
	} else {
		start, end = period.YearBounds(args.Year)
	}
	result, err := s.transactions.FetchFixedPrice(ctx, args, start, end)
	if err != nil {
		return models.Report{}, nil, dto.FetchDiagnostics{}, err
	}

	var report models.Report
	if args.Month > 0 {
		report, err = s.FixedMonth(ctx, args)
	} else {
		report, err = s.FixedYear(ctx, args)
	}
	if err != nil {
		return models.Report{}, nil, dto.FetchDiagnostics{}, err
	}
	return report, result.Transactions, result.Diagnostics, nil
}

func combinedTitle(args dto.ReportArgs) string {
	if args.Month > 0 {
		return fmt.Sprintf("Total earnings %s %d", period.MonthNames[args.Month-1], args.Year)
	}
	return fmt.Sprintf("Total earnings %d", args.Year)
}

// ---- Assembly helpers ----

func (s *ReportService) assembleReport(args dto.ReportArgs, labels []string, series []float64, detail []models.DetailRow, title string) models.Report {
	var total float64
	monthSeries := make([]models.MonthPoint, len(series))
	for i, v := range series {
		series[i] = round2(v)
		total += v
		monthSeries[i] = models.MonthPoint{Y: series[i], Month: labels[i]}
	}
	total = round2(total)

	return models.Report{
		Year:         strconv.Itoa(args.Year),
		Month:        monthName(args.Month),
		XAxis:        labels,
		Series:       series,
		MonthSeries:  monthSeries,
		Detail:       detail,
		TotalEarning: total,
		Charity:      round2(total * charityRate),
		Title:        title,
	}
}

func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return period.MonthNames[month-1]
}

// clientBreakdown turns per-client totals into sorted rows plus a pie
// series that drops non-positive slices. The "Unknown" bucket is
// dropped as soon as at least one named client exists.
func clientBreakdown(totals map[string]float64) ([]models.ClientRow, []models.PiePoint) {
	if len(totals) > 1 {
		delete(totals, "Unknown")
	}

	var sum float64
	for _, v := range totals {
		if v > 0 {
			sum += v
		}
	}

	rows := make([]models.ClientRow, 0, len(totals))
	for name, v := range totals {
		percent := 0.0
		if sum > 0 {
			percent = round2(v / sum * 100)
		}
		rows = append(rows, models.ClientRow{Name: name, Total: round2(v), Percent: percent})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Name < rows[j].Name
	})

	pie := make([]models.PiePoint, 0, len(rows))
	for _, row := range rows {
		if row.Total > 0 {
			pie = append(pie, models.PiePoint{Name: row.Name, Y: row.Total})
		}
	}
	return rows, pie
}

func entryDescription(e dto.TimeEntry) string {
	if e.Memo == "" {
		return e.ClientName
	}
	return e.ClientName + " - " + e.Memo
}

func txnDescription(t models.Transaction) string {
	if t.DescriptionUI != "" {
		return t.DescriptionUI
	}
	return t.Description
}

func parseEntryDate(e dto.TimeEntry) (time.Time, bool) {
	return extract.ParseDate(e.DateWorkedOn)
}

func weekLabels(ranges []period.WeekRange) []string {
	labels := make([]string, len(ranges))
	for i, r := range ranges {
		labels[i] = r.Label
	}
	return labels
}

// isoWeeksInYear returns 52 or 53. Dec 28 always sits in the last ISO
// week of its year.
func isoWeeksInYear(year int) int {
	_, week := time.Date(year, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
