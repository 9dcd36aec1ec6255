package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
	"github.com/upstats/earnings-backend/internal/middleware"
	"github.com/upstats/earnings-backend/internal/models"
	"github.com/upstats/earnings-backend/internal/response"
)

type ReportService interface {
	HourlyYear(ctx context.Context, args dto.ReportArgs) (models.Report, error)
	HourlyMonth(ctx context.Context, args dto.ReportArgs) (models.Report, error)
	FixedYear(ctx context.Context, args dto.ReportArgs) (models.Report, error)
	FixedMonth(ctx context.Context, args dto.ReportArgs) (models.Report, error)
	WeeklyHours(ctx context.Context, args dto.ReportArgs) (models.HoursReport, error)
	TotalEarning(ctx context.Context, args dto.ReportArgs) (dto.CombinedEarning, error)
	ClientMonthDetail(ctx context.Context, args dto.ReportArgs, client string) (models.Report, error)
	TxnHistory(ctx context.Context, args dto.ReportArgs) (dto.TxnHistoryResult, error)
	AllTime(ctx context.Context, args dto.ReportArgs) (dto.AllTimeResult, error)
}

type reportHandlers struct {
	ResponseHandler response.ResponseHandler
	ReportSvc       ReportService
}

func NewReportHandlers(deps *Deps) *reportHandlers {
	return &reportHandlers{
		ResponseHandler: deps.ResponseHandler,
		ReportSvc:       deps.ReportSvc,
	}
}

func (h *reportHandlers) ReportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/hourly/{year}", h.HourlyYear)
	r.Get("/hourly/{year}/{month}", h.HourlyMonth)
	r.Get("/fixed/{year}", h.FixedYear)
	r.Get("/fixed/{year}/{month}", h.FixedMonth)
	r.Get("/total/{year}", h.TotalEarning)
	r.Get("/total/{year}/{month}", h.TotalEarning)
	r.Get("/total/{year}/{month}/client/{client}", h.ClientMonthDetail)
	r.Get("/hours/{year}", h.WeeklyHours)
	r.Get("/transactions/{year}", h.TxnHistory)
	r.Get("/transactions/{year}/{month}", h.TxnHistory)
	r.Get("/all-time", h.AllTime)
	return r
}

func (h *reportHandlers) HourlyYear(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgs(r, false)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	report, err := h.ReportSvc.HourlyYear(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) HourlyMonth(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgs(r, true)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	report, err := h.ReportSvc.HourlyMonth(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) FixedYear(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgs(r, false)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	report, err := h.ReportSvc.FixedYear(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) FixedMonth(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgs(r, true)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	report, err := h.ReportSvc.FixedMonth(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) TotalEarning(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgsOptionalMonth(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	report, err := h.ReportSvc.TotalEarning(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) ClientMonthDetail(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgs(r, true)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	client := chi.URLParam(r, "client")
	if client == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("client name is required"))
		return
	}
	report, err := h.ReportSvc.ClientMonthDetail(r.Context(), args, client)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) WeeklyHours(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgs(r, false)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	report, err := h.ReportSvc.WeeklyHours(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, report)
}

func (h *reportHandlers) TxnHistory(w http.ResponseWriter, r *http.Request) {
	args, err := reportArgsOptionalMonth(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	result, err := h.ReportSvc.TxnHistory(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}

func (h *reportHandlers) AllTime(w http.ResponseWriter, r *http.Request) {
	args := sessionArgs(r)
	result, err := h.ReportSvc.AllTime(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}

// sessionArgs builds the base report arguments off the authenticated
// session plus query flags.
func sessionArgs(r *http.Request) dto.ReportArgs {
	args := dto.ReportArgs{
		Net:   r.URL.Query().Get("net") == "1",
		Debug: r.URL.Query().Get("debug") == "1",
	}
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		args.UserID = sess.UserID
		args.TenantID = sess.TenantID
		args.TenantIDs = sess.TenantIDs
		args.FreelancerReference = sess.FreelancerReference
		if sess.Token != nil {
			args.AccessToken = sess.Token.AccessToken
		}
	}
	return args
}

func reportArgs(r *http.Request, withMonth bool) (dto.ReportArgs, error) {
	args := sessionArgs(r)

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2100 {
		return dto.ReportArgs{}, errs.NewValidationError("year must be a four-digit year")
	}
	args.Year = year

	if withMonth {
		month, err := strconv.Atoi(chi.URLParam(r, "month"))
		if err != nil || month < 1 || month > 12 {
			return dto.ReportArgs{}, errs.NewValidationError("month must be 1-12")
		}
		args.Month = month
	}
	return args, nil
}

func reportArgsOptionalMonth(r *http.Request) (dto.ReportArgs, error) {
	if chi.URLParam(r, "month") == "" {
		return reportArgs(r, false)
	}
	return reportArgs(r, true)
}
