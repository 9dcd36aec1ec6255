package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/extract"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/period"
)

// txnFetchPad widens the monthly transaction-history window so charges
// whose work range crosses the month boundary are fetched; rows are
// re-filtered by effective date afterwards.
const txnFetchPad = 14 * 24 * time.Hour

// firstTrackedYear is where the all-time series starts; the platform
// has no per-freelancer data before it that this report can read.
const firstTrackedYear = 2010

// TxnHistory builds the transaction-history breakdown for one period:
// earnings, service fees, memberships and connects purchases, with
// gross and net series bucketed by week (month view) or month (year
// view). Row amounts stay as posted; netting happens on the buckets,
// and the net flag folds each client's fees into the client totals.
func (s *ReportService) TxnHistory(ctx context.Context, args dto.ReportArgs) (dto.TxnHistoryResult, error) {
	var start, end time.Time
	if args.Month > 0 {
		start, end = period.MonthBounds(args.Year, args.Month)
	} else {
		start, end = period.YearBounds(args.Year)
	}

	all, err := s.transactions.FetchTransactionHistoryRows(ctx, args, start.Add(-txnFetchPad), end.Add(txnFetchPad))
	if err != nil {
		return dto.TxnHistoryResult{}, err
	}

	var labels []string
	var ranges []period.WeekRange
	if args.Month > 0 {
		ranges = period.MonthWeekRanges(args.Year, args.Month)
		labels = weekLabels(ranges)
	} else {
		labels = append([]string(nil), period.MonthNames[:]...)
	}
	bucketFor := func(d time.Time) int {
		if args.Month > 0 {
			for i, r := range ranges {
				if period.Contains(r, d) {
					return i
				}
			}
			return -1
		}
		return int(d.Month()) - 1
	}

	grossSeries := make([]float64, len(labels))
	feeSeries := make([]float64, len(labels))
	var gross, fees, memberships, connects float64
	rows := make([]dto.TxnRow, 0, len(all))
	clientSet := map[string]struct{}{}
	clientTotals := map[string]float64{}
	clientFees := map[string]float64{}
	for _, t := range all {
		d := effectiveFor(t, args)
		if d == nil || d.Before(start) || d.After(end) {
			continue
		}

		kind := extract.Classify(t)
		amount := round2(t.Amount)
		bucket := bucketFor(*d)
		switch kind {
		case models.KindWithdrawal:
			continue
		case models.KindEarning, models.KindHourly:
			gross += t.Amount
			clientSet[t.ClientName] = struct{}{}
			clientTotals[t.ClientName] += t.Amount
			if bucket >= 0 {
				grossSeries[bucket] += t.Amount
			}
		case models.KindServiceFee:
			fees -= math.Abs(t.Amount)
			amount = round2(-math.Abs(t.Amount))
			clientFees[t.ClientName] -= math.Abs(t.Amount)
			if bucket >= 0 {
				feeSeries[bucket] -= math.Abs(t.Amount)
			}
		case models.KindMembership:
			memberships -= math.Abs(t.Amount)
			amount = round2(-math.Abs(t.Amount))
		case models.KindConnects:
			connects -= math.Abs(t.Amount)
			amount = round2(-math.Abs(t.Amount))
		}

		rows = append(rows, dto.TxnRow{
			Date:        period.DisplayDate(d, t.OccurredAt),
			Description: txnDescription(t),
			ClientName:  t.ClientName,
			Kind:        string(kind),
			Amount:      amount,
		})
	}

	netSeries := make([]float64, len(labels))
	for i := range grossSeries {
		netSeries[i] = round2(grossSeries[i] + feeSeries[i])
		grossSeries[i] = round2(grossSeries[i])
	}

	if args.Net {
		for name, fee := range clientFees {
			if _, earned := clientTotals[name]; earned {
				clientTotals[name] += fee
			}
		}
	}
	clientRows, clientPie := clientBreakdown(clientTotals)

	return dto.TxnHistoryResult{
		Year:        args.Year,
		Month:       args.Month,
		XAxis:       labels,
		GrossSeries: grossSeries,
		NetSeries:   netSeries,
		Rows:        rows,
		Gross:       round2(gross),
		Fees:        round2(fees),
		Net:         round2(gross + fees),
		Memberships: round2(memberships),
		Connects:    round2(connects),
		Misc:        round2(memberships + connects),
		ClientRows:  clientRows,
		ClientPie:   clientPie,
		ClientNames: clientNames(clientSet),
	}, nil
}

// AllTime builds the per-year earnings series from the first tracked
// year through the current one. Leading all-zero years are trimmed,
// but the series never trims to nothing.
func (s *ReportService) AllTime(ctx context.Context, args dto.ReportArgs) (dto.AllTimeResult, error) {
	currentYear := s.now().Year()
	years := make([]dto.YearPoint, 0, currentYear-firstTrackedYear+1)
	var unknown []models.Transaction
	var total float64

	for year := firstTrackedYear; year <= currentYear; year++ {
		yearArgs := args
		yearArgs.Year = year
		yearArgs.Month = 0

		entries, err := s.timeReports.EntriesForYear(ctx, yearArgs)
		if err != nil {
			return dto.AllTimeResult{}, err
		}
		var hourly float64
		for _, e := range entries {
			hourly += e.TotalCharges
			if e.ClientName == "Unknown" && e.TotalCharges != 0 {
				unknown = append(unknown, models.Transaction{
					OccurredAt:  e.DateWorkedOn,
					Amount:      round2(e.TotalCharges),
					ClientName:  "Unknown",
					RawKind:     "hourly",
					Description: e.Memo,
				})
			}
		}

		start, end := period.YearBounds(year)
		fixedResult, err := s.transactions.FetchFixedPrice(ctx, yearArgs, start, end)
		if err != nil {
			return dto.AllTimeResult{}, err
		}
		var fixed float64
		for _, t := range fixedResult.Transactions {
			fixed += t.Amount
			if extract.Classify(t) == models.KindUnknown {
				unknown = append(unknown, t)
			}
		}

		point := dto.YearPoint{
			Year:   year,
			Hourly: round2(hourly),
			Fixed:  round2(fixed),
			Total:  round2(hourly + fixed),
		}
		years = append(years, point)
		total += hourly + fixed
	}

	return dto.AllTimeResult{
		Years:        trimLeadingZeroYears(years),
		TotalEarning: round2(total),
		Charity:      round2(total * charityRate),
		UnknownRows:  unknown,
	}, nil
}

// trimLeadingZeroYears drops years before the first one with
// earnings. A series with no earnings at all is returned whole.
func trimLeadingZeroYears(years []dto.YearPoint) []dto.YearPoint {
	first := -1
	for i, y := range years {
		if y.Total != 0 {
			first = i
			break
		}
	}
	if first <= 0 {
		return years
	}
	return years[first:]
}

func effectiveFor(t models.Transaction, args dto.ReportArgs) *time.Time {
	if args.Month > 0 {
		return period.EffectiveDate(t, args.Year, args.Month)
	}
	return period.EffectiveDateAny(t)
}

func clientNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 1 {
		kept := names[:0]
		for _, name := range names {
			if name != "Unknown" {
				kept = append(kept, name)
			}
		}
		names = kept
	}
	return names
}
