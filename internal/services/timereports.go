package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/upstats/earnings-backend/internal/cache"
	"github.com/upstats/earnings-backend/internal/client/upwork"
	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/extract"
	"github.com/upstats/earnings-backend/internal/period"
)

const timeReportQuery = `query timeReport($dateRange: TimeReportDateRange!) {
  user {
    freelancerProfile {
      user {
        timeReport(timeReportDate_bt: $dateRange) {
          dateWorkedOn
          totalCharges
          totalHoursWorked
          memo
          contract {
            offer {
              client {
                name
              }
            }
          }
        }
      }
    }
  }
}`

// monthFetchPad widens the monthly query window so charges billed at
// a period boundary still come back; rows are re-filtered by
// dateWorkedOn afterwards.
const monthFetchPad = 7 * 24 * time.Hour

type TimeReportService struct {
	api   APIFactory
	cache *cache.Cache
}

func NewTimeReportService(api APIFactory, c *cache.Cache) *TimeReportService {
	return &TimeReportService{api: api, cache: c}
}

// EntriesForYear returns the hourly time entries for one calendar
// year.
func (s *TimeReportService) EntriesForYear(ctx context.Context, args dto.ReportArgs) ([]dto.TimeEntry, error) {
	key := cache.Key("hourly_year", args.UserID, args.TenantID, strconv.Itoa(args.Year))
	return s.cached(key, func() ([]dto.TimeEntry, error) {
		start, end := period.YearBounds(args.Year)
		return s.fetch(ctx, args, start, end)
	})
}

// EntriesForMonth returns the hourly time entries for one month. The
// upstream window is padded on both sides and the result cut back to
// the month by dateWorkedOn.
func (s *TimeReportService) EntriesForMonth(ctx context.Context, args dto.ReportArgs) ([]dto.TimeEntry, error) {
	key := cache.Key("hourly_month", args.UserID, args.TenantID, strconv.Itoa(args.Year), strconv.Itoa(args.Month))
	return s.cached(key, func() ([]dto.TimeEntry, error) {
		start, end := period.MonthBounds(args.Year, args.Month)
		entries, err := s.fetch(ctx, args, start.Add(-monthFetchPad), end.Add(monthFetchPad))
		if err != nil {
			return nil, err
		}
		kept := make([]dto.TimeEntry, 0, len(entries))
		for _, e := range entries {
			if d, ok := extract.ParseDate(e.DateWorkedOn); ok && !d.Before(start) && !d.After(end) {
				kept = append(kept, e)
			}
		}
		return kept, nil
	})
}

// WeeklyEntries returns the full-year entries used by the weekly hours
// view. Cached separately from EntriesForYear so a report refresh on
// one view does not evict the other.
func (s *TimeReportService) WeeklyEntries(ctx context.Context, args dto.ReportArgs) ([]dto.TimeEntry, error) {
	key := cache.Key("timereport_year", args.UserID, args.TenantID, strconv.Itoa(args.Year))
	return s.cached(key, func() ([]dto.TimeEntry, error) {
		start, end := period.YearBounds(args.Year)
		return s.fetch(ctx, args, start, end)
	})
}

func (s *TimeReportService) cached(key string, compute func() ([]dto.TimeEntry, error)) ([]dto.TimeEntry, error) {
	value, err := s.cache.GetOrCompute(key, cache.DefaultTTL, func() (any, error) {
		return compute()
	})
	if err != nil {
		return nil, err
	}
	return value.([]dto.TimeEntry), nil
}

func (s *TimeReportService) fetch(ctx context.Context, args dto.ReportArgs, start, end time.Time) ([]dto.TimeEntry, error) {
	client := s.api.WithToken(args.AccessToken, args.TenantID)
	variables := map[string]any{
		"dateRange": map[string]any{
			"rangeStart": start.Format("20060102"),
			"rangeEnd":   end.Format("20060102"),
		},
	}
	payload, err := client.Execute(ctx, timeReportQuery, variables)
	if err != nil {
		return nil, err
	}
	if upworkclient.LooksLikeError(payload) {
		return nil, errs.NewUpstreamError(fmt.Sprintf("timeReport query failed: %v", payload["errors"]))
	}

	rows := rowList(dig(payload, "data", "user", "freelancerProfile", "user", "timeReport"))
	entries := make([]dto.TimeEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, dto.TimeEntry{
			DateWorkedOn: extract.NormalizeDate(asString(row["dateWorkedOn"])),
			TotalCharges: asFloat(row["totalCharges"]),
			TotalHours:   asFloat(row["totalHoursWorked"]),
			Memo:         asString(row["memo"]),
			ClientName:   extract.NormalizeClientName(asString(dig(row, "contract", "offer", "client", "name"))),
		})
	}
	return entries, nil
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return extract.ParseMoney(t)
	case int:
		return float64(t)
	default:
		return 0
	}
}
