package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/upstats/earnings-backend/internal/cache"
	"github.com/upstats/earnings-backend/internal/client/upwork"
	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/extract"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/pkg/logger"
)

const accountingEntityQuery = `query {
  organization {
    accountingEntity {
      id
    }
  }
}`

const transactionHistoryQuery = `query transactionHistory($filter: TransactionHistoryFilter!) {
  transactionHistory(transactionHistoryFilter_: $filter) {
    transactionDetail {
      transactionHistoryRow {
        transactionDateTime
        type
        subtype
        description
        descriptionUI
        assignmentCompanyName
        agencyName
        developerName
        amount { rawValue currency }
        transactionAmount { rawValue currency }
        payment { rawValue currency }
      }
    }
  }
}`

// gdsParamCandidates are the date-filter spellings the billings table
// has accepted over time; each is tried with format=json first.
var gdsParamCandidates = [][2]string{
	{"from", "to"},
	{"from_date", "to_date"},
	{"start_date", "end_date"},
	{"begin_date", "end_date"},
	{"date_from", "date_to"},
	{"", ""},
}

type TransactionService struct {
	api   APIFactory
	cache *cache.Cache
}

func NewTransactionService(api APIFactory, c *cache.Cache) *TransactionService {
	return &TransactionService{api: api, cache: c}
}

// FetchFixedPrice returns the fixed-price earnings (bonuses and
// milestones included) between start and end, trying GraphQL first,
// then the GDS billings table, then the raw finreports endpoint.
func (s *TransactionService) FetchFixedPrice(ctx context.Context, args dto.ReportArgs, start, end time.Time) (dto.FixedPriceResult, error) {
	key := cache.Key("fixed_tx",
		args.UserID,
		args.TenantID,
		sortedCSV(args.TenantIDs),
		args.FreelancerReference,
		start.Format("20060102"),
		end.Format("20060102"),
	)
	value, err := s.cache.GetOrCompute(key, cache.DefaultTTL, func() (any, error) {
		return s.fetchFixedPrice(ctx, args, start, end)
	})
	if err != nil {
		return dto.FixedPriceResult{}, err
	}
	return value.(dto.FixedPriceResult), nil
}

func (s *TransactionService) fetchFixedPrice(ctx context.Context, args dto.ReportArgs, start, end time.Time) (dto.FixedPriceResult, error) {
	log := logger.FromContext(ctx)
	client := s.api.WithToken(args.AccessToken, args.TenantID)
	var attempts []string

	rows, err := s.graphQLHistoryRows(ctx, client, args, start, end)
	if err != nil {
		attempts = append(attempts, "graphql: "+err.Error())
	} else if len(rows) == 0 {
		attempts = append(attempts, "graphql: no rows")
	} else {
		txns := fixedPricePipeline(graphQLTransactions(rows), start, end)
		return fixedResult(txns, models.SourceGraphQL, attempts), nil
	}

	txns, jsonBroken, gdsAttempts := s.fetchFromBillings(ctx, client, args, start, end)
	attempts = append(attempts, gdsAttempts...)
	if txns != nil {
		return fixedResult(txns, models.SourceBillings, attempts), nil
	}
	if !jsonBroken {
		log.Debug("billings table empty, trying finreports", "user_id", args.UserID)
	}

	txns, finAttempts := s.fetchFromFinReports(ctx, client, args, start, end)
	attempts = append(attempts, finAttempts...)
	if txns != nil {
		return fixedResult(txns, models.SourceFinReports, attempts), nil
	}

	// Every source came back empty; the period simply has no
	// fixed-price activity.
	return fixedResult([]models.Transaction{}, models.SourceFinReports, attempts), nil
}

func fixedResult(txns []models.Transaction, source models.Source, attempts []string) dto.FixedPriceResult {
	return dto.FixedPriceResult{
		Transactions: txns,
		Diagnostics: dto.FetchDiagnostics{
			Source:   source,
			Attempts: attempts,
			RowCount: len(txns),
		},
	}
}

// graphQLHistoryRows runs the transactionHistory query, resolving the
// accounting-entity scope first when the session does not carry it.
func (s *TransactionService) graphQLHistoryRows(ctx context.Context, client API, args dto.ReportArgs, start, end time.Time) ([]map[string]any, error) {
	aceIDs := args.TenantIDs
	if len(aceIDs) == 0 {
		resolved, err := s.resolveAccountingEntities(ctx, client)
		if err != nil {
			return nil, err
		}
		aceIDs = resolved
	}

	variables := map[string]any{
		"filter": map[string]any{
			"aceIds_any": aceIDs,
			"transactionDateTime_bt": map[string]any{
				"rangeStart": start.Format("2006-01-02") + "T00:00:00Z",
				"rangeEnd":   end.Format("2006-01-02") + "T23:59:59Z",
			},
		},
	}
	payload, err := client.Execute(ctx, transactionHistoryQuery, variables)
	if err != nil {
		return nil, err
	}
	if upworkclient.LooksLikeError(payload) {
		return nil, errs.NewUpstreamError(fmt.Sprintf("transactionHistory query failed: %v", payload["errors"]))
	}

	detail := dig(payload, "data", "transactionHistory", "transactionDetail")
	rows := rowList(dig(asMap(detail), "transactionHistoryRow"))
	return rows, nil
}

func (s *TransactionService) resolveAccountingEntities(ctx context.Context, client API) ([]string, error) {
	payload, err := client.Execute(ctx, accountingEntityQuery, nil)
	if err != nil {
		return nil, err
	}
	if upworkclient.LooksLikeError(payload) {
		return nil, errs.NewUpstreamError("accountingEntity query failed")
	}
	entity := asMap(dig(payload, "data", "organization", "accountingEntity"))
	id := asString(entity["id"])
	if id == "" {
		return nil, errs.NewUpstreamError("no accounting entity on organization")
	}
	return []string{id}, nil
}

// fetchFromBillings walks the GDS parameter candidates. A nil first
// return means no candidate produced rows; jsonBroken reports whether
// the endpoint answered with something other than JSON, in which case
// the caller skips straight to finreports.
func (s *TransactionService) fetchFromBillings(ctx context.Context, client API, args dto.ReportArgs, start, end time.Time) ([]models.Transaction, bool, []string) {
	var attempts []string
	for _, candidate := range gdsParamCandidates {
		for _, withFormat := range []bool{true, false} {
			params := map[string]string{}
			if candidate[0] != "" {
				params[candidate[0]] = start.Format("2006-01-02")
				params[candidate[1]] = end.Format("2006-01-02")
			}
			if withFormat {
				params["format"] = "json"
			}

			payload, err := client.GetByFreelancer(ctx, args.FreelancerReference, params)
			if err != nil {
				attempts = append(attempts, "billings "+paramLabel(params)+": "+err.Error())
				if isNonJSON(err) {
					return nil, true, attempts
				}
				continue
			}
			if upworkclient.LooksLikeError(payload) {
				attempts = append(attempts, "billings "+paramLabel(params)+": error payload")
				continue
			}
			rows := extract.Rows(payload)
			if len(rows) == 0 {
				attempts = append(attempts, "billings "+paramLabel(params)+": no rows")
				continue
			}
			return fixedPricePipeline(tableTransactions(rows, models.SourceBillings), start, end), false, attempts
		}
	}
	return nil, false, attempts
}

func (s *TransactionService) fetchFromFinReports(ctx context.Context, client API, args dto.ReportArgs, start, end time.Time) ([]models.Transaction, []string) {
	var attempts []string
	params := map[string]string{
		"from":   start.Format("2006-01-02"),
		"to":     end.Format("2006-01-02"),
		"format": "json",
	}
	for _, base := range s.api.FinReportBases() {
		for _, ref := range s.candidateReferences(ctx, client, args.FreelancerReference) {
			payload, err := client.FinReports(ctx, base, ref, "billings", params)
			if err != nil {
				attempts = append(attempts, "finreports "+base+" "+ref+": "+err.Error())
				continue
			}
			if upworkclient.LooksLikeError(payload) {
				attempts = append(attempts, "finreports "+base+" "+ref+": error payload")
				continue
			}
			rows := extract.Rows(payload)
			if len(rows) == 0 {
				attempts = append(attempts, "finreports "+base+" "+ref+": no rows")
				continue
			}
			return fixedPricePipeline(tableTransactions(rows, models.SourceFinReports), start, end), attempts
		}
	}
	return nil, attempts
}

// candidateReferences returns the freelancer references to try against
// finreports: the session reference itself, plus the numeric provider
// id behind it when the reference is a "~..." profile key.
func (s *TransactionService) candidateReferences(ctx context.Context, client API, reference string) []string {
	refs := []string{reference}
	if !strings.HasPrefix(reference, "~") {
		return refs
	}
	payload, err := client.GetProfile(ctx, reference)
	if err != nil {
		return refs
	}
	profile := asMap(dig(payload, "profile"))
	for _, key := range []string{"ciphertext", "recno", "provider_id", "id"} {
		if id := asString(profile[key]); id != "" && id != reference {
			refs = append(refs, id)
			break
		}
	}
	return refs
}

// FetchTransactionHistoryRows returns every transaction in the window
// with its signed amount, uncut by the fixed-price filters. This feeds
// the transaction-history and service-fee views.
func (s *TransactionService) FetchTransactionHistoryRows(ctx context.Context, args dto.ReportArgs, start, end time.Time) ([]models.Transaction, error) {
	key := cache.Key("txn_history",
		args.UserID,
		args.TenantID,
		sortedCSV(args.TenantIDs),
		start.Format("20060102"),
		end.Format("20060102"),
	)
	value, err := s.cache.GetOrCompute(key, cache.DefaultTTL, func() (any, error) {
		client := s.api.WithToken(args.AccessToken, args.TenantID)
		rows, err := s.graphQLHistoryRows(ctx, client, args, start, end)
		if err != nil {
			return nil, err
		}
		return graphQLTransactions(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.Transaction), nil
}

// FetchServiceFeeHistory returns only the fee rows (service fees kept
// negative) for the window.
func (s *TransactionService) FetchServiceFeeHistory(ctx context.Context, args dto.ReportArgs, start, end time.Time) ([]models.Transaction, error) {
	key := cache.Key("hourly_service_fee",
		args.UserID,
		args.TenantID,
		sortedCSV(args.TenantIDs),
		start.Format("20060102"),
		end.Format("20060102"),
	)
	value, err := s.cache.GetOrCompute(key, cache.DefaultTTL, func() (any, error) {
		all, err := s.FetchTransactionHistoryRows(ctx, args, start, end)
		if err != nil {
			return nil, err
		}
		fees := make([]models.Transaction, 0)
		for _, t := range all {
			if extract.IsFee(t) {
				fees = append(fees, t)
			}
		}
		return fees, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.Transaction), nil
}

// ---- Row conversion ----

func graphQLTransactions(rows []map[string]any) []models.Transaction {
	txns := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		amount, currency := graphQLAmount(row)
		txns = append(txns, models.Transaction{
			OccurredAt:    extract.NormalizeDate(asString(row["transactionDateTime"])),
			Amount:        amount,
			Currency:      currency,
			ClientName:    graphQLClient(row),
			RawKind:       asString(row["type"]),
			Subtype:       asString(row["subtype"]),
			Description:   asString(row["description"]),
			DescriptionUI: asString(row["descriptionUI"]),
			Source:        models.SourceGraphQL,
		})
	}
	return txns
}

// graphQLAmount prefers the payment money object, then the transaction
// amount, then the generic amount.
func graphQLAmount(row map[string]any) (float64, string) {
	for _, key := range []string{"payment", "transactionAmount", "amount"} {
		money := asMap(row[key])
		if money == nil {
			continue
		}
		raw := money["rawValue"]
		switch v := raw.(type) {
		case string:
			return extract.ParseMoney(v), asString(money["currency"])
		case float64:
			return v, asString(money["currency"])
		}
	}
	return 0, ""
}

func graphQLClient(row map[string]any) string {
	for _, key := range []string{"assignmentCompanyName", "agencyName", "developerName"} {
		if name := asString(row[key]); name != "" {
			return extract.NormalizeClientName(name)
		}
	}
	return "Unknown"
}

func tableTransactions(rows []map[string]any, source models.Source) []models.Transaction {
	txns := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		amount, currency := extract.RowAmount(row)
		txns = append(txns, models.Transaction{
			OccurredAt:    extract.RowDate(row),
			Amount:        amount,
			Currency:      currency,
			ClientName:    extract.RowClientName(row),
			RawKind:       asString(row["type"]),
			Subtype:       asString(row["subtype"]),
			Description:   asString(firstOf(row, "description", "memo", "notes")),
			DescriptionUI: asString(row["description_ui"]),
			Source:        source,
		})
	}
	return txns
}

// fixedPricePipeline applies the fixed-price filters: positive amounts
// only, no withdrawals or hourly charges, inside the window, and a
// fixed/bonus/milestone keyword cut that never empties a non-empty
// set.
func fixedPricePipeline(txns []models.Transaction, start, end time.Time) []models.Transaction {
	kept := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Amount <= 0 {
			continue
		}
		if extract.IsWithdrawal(t.RawKind, t.Description) {
			continue
		}
		if extract.IsHourlyCharge(t.RawKind, t.Description) {
			continue
		}
		if !extract.InRange(t.OccurredAt, start, end) {
			continue
		}
		kept = append(kept, t)
	}

	keyworded := make([]models.Transaction, 0, len(kept))
	for _, t := range kept {
		if extract.IsFixedBonusContext(t) {
			keyworded = append(keyworded, t)
		}
	}
	if len(keyworded) == 0 {
		return kept
	}
	return keyworded
}

// ---- Payload helpers ----

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, key := range keys {
		node := asMap(cur)
		if node == nil {
			return nil
		}
		cur = node[key]
	}
	return cur
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func rowList(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m := asMap(item); m != nil {
			rows = append(rows, m)
		}
	}
	return rows
}

func firstOf(row map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func sortedCSV(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func paramLabel(params map[string]string) string {
	if len(params) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "+")
}

func isNonJSON(err error) bool {
	return err != nil && strings.Contains(err.Error(), "non-JSON response")
}
