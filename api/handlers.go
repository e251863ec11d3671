/*
handlers.go - HTTP API handlers for the arrears and compliance engine

PURPOSE:
  Exposes the rules engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic. Every balance and
  compliance response is computed fresh from stored inputs; nothing
  derived is persisted.

ENDPOINTS:
  Tenancies:
    GET    /api/tenancies                    List all tenancies
    POST   /api/tenancies                    Create tenancy
    GET    /api/tenancies/{id}               Get tenancy details
    POST   /api/tenancies/{id}/reconcile     Apply a settings change

  Payments:
    POST   /api/tenancies/{id}/payments      Append a payment
    GET    /api/tenancies/{id}/payments      Payment history

  Balance and compliance:
    GET    /api/tenancies/{id}/balance       Balance snapshot (?as_of=)
    GET    /api/tenancies/{id}/compliance    Compliance status (?as_of=)

  Notices:
    POST   /api/tenancies/{id}/notices       Record a strike/remedy notice
    GET    /api/tenancies/{id}/notices       Notice history
    POST   /api/notices/{id}/events          Apply a lifecycle event

  Utility:
    POST   /api/service-date                 Compute an official service date

AS-OF SEMANTICS:
  Balance and compliance endpoints accept ?as_of=YYYY-MM-DD and default to
  today in the server's local timezone. All computation threads that date
  explicitly; there is no ambient clock inside the engine.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate strike, invalid lifecycle transition)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - sweep.go: Background compliance sweep sharing this handler's deps
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/notice"
	"github.com/ronven594/rentally-sub000/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Engine    *engine.ComplianceEngine
	Lifecycle *notice.Validator

	// Now supplies the default as-of date. The default reads the process
	// clock in its local timezone: a UTC date lags the New Zealand date for
	// half of every day, which would shift due-date and deadline math.
	Now func() engine.TimePoint

	validate *validator.Validate
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, eng *engine.ComplianceEngine) *Handler {
	return &Handler{
		Store:     store,
		Engine:    eng,
		Lifecycle: notice.NewValidator(),
		Now:       func() engine.TimePoint { return engine.FromTime(time.Now()) },
		validate:  validator.New(),
	}
}

// =============================================================================
// TENANCY HANDLERS
// =============================================================================

// ListTenancies returns all tenancies.
func (h *Handler) ListTenancies(w http.ResponseWriter, r *http.Request) {
	tenancies, err := h.Store.ListTenancies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tenancies", err)
		return
	}

	dtos := make([]TenancyDTO, len(tenancies))
	for i, t := range tenancies {
		dtos[i] = toTenancyDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTenancy returns a single tenancy.
func (h *Handler) GetTenancy(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.GetTenancy(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tenancy not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenancy", err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(t))
}

// CreateTenancy creates a new tenancy.
func (h *Handler) CreateTenancy(w http.ResponseWriter, r *http.Request) {
	var req CreateTenancyRequest
	if !h.decode(w, r, &req) {
		return
	}

	schedule, err := scheduleFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return
	}

	t := sqlite.Tenancy{
		ID:       req.ID,
		Address:  req.Address,
		Region:   engine.Region(req.Region),
		Schedule: schedule,
	}
	if err := h.Store.CreateTenancy(r.Context(), t); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidSchedule) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to create tenancy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenancyDTO(t))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// AddPayment appends a payment to a tenancy's ledger.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	tenancyID := chi.URLParam(r, "id")
	var req AddPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	// Ensure the tenancy exists so the payment can't orphan.
	if _, err := h.Store.GetTenancy(r.Context(), tenancyID); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Tenancy not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get tenancy", err)
		return
	}

	p := engine.Payment{ID: req.ID, Amount: amount, Date: date}
	if err := h.Store.AddPayment(r.Context(), tenancyID, p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, PaymentDTO{
		ID:     p.ID,
		Amount: p.Amount.StringFixed(2),
		Date:   p.Date.String(),
	})
}

// ListPayments returns a tenancy's payment history.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = PaymentDTO{ID: p.ID, Amount: p.Amount.StringFixed(2), Date: p.Date.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BALANCE AND COMPLIANCE HANDLERS
// =============================================================================

// GetBalance returns the balance snapshot as of a date (default today).
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	t, payments, ok := h.loadTenancyInputs(w, r)
	if !ok {
		return
	}
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	snapshot, err := engine.Calculate(t.Schedule, payments, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to calculate balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(snapshot))
}

// GetCompliance returns the compliance status as of a date (default today).
func (h *Handler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	t, payments, ok := h.loadTenancyInputs(w, r)
	if !ok {
		return
	}
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
		return
	}

	records, err := h.Store.ListNotices(r.Context(), t.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notices", err)
		return
	}

	status, err := h.Engine.Evaluate(t.Schedule, payments, engineNotices(records), t.Region, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to evaluate compliance", err)
		return
	}
	writeJSON(w, http.StatusOK, toComplianceDTO(status))
}

// =============================================================================
// NOTICE HANDLERS
// =============================================================================

// RecordNotice records a strike or remedy notice. The official service date
// is computed from sent_at and the tenancy's region, never trusted from the
// client.
func (h *Handler) RecordNotice(w http.ResponseWriter, r *http.Request) {
	tenancyID := chi.URLParam(r, "id")
	var req RecordNoticeRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.Store.GetTenancy(r.Context(), tenancyID)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tenancy not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenancy", err)
		return
	}

	sentAt, err := parseSentAt(req.SentAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sent_at (use RFC 3339)", err)
		return
	}
	dueFor, err := engine.ParseDate(req.DueDateFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date_for", err)
		return
	}
	owed, err := decimal.NewFromString(req.AmountOwed)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_owed", err)
		return
	}

	timeline, err := h.Engine.OfficialServiceDate(sentAt, t.Region)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute service date", err)
		return
	}

	rec := sqlite.NoticeRecord{
		TenancyID: tenancyID,
		State:     notice.StateServed,
		Notice: engine.StrikeNotice{
			NoticeID:            req.ID,
			Type:                engine.NoticeType(req.Type),
			OfficialServiceDate: timeline.OfficialServiceDate,
			DueDateFor:          dueFor,
			AmountOwed:          owed,
		},
	}
	if err := h.Store.AddNotice(r.Context(), rec); err != nil {
		if errors.Is(err, sqlite.ErrDuplicateStrike) {
			writeError(w, http.StatusConflict, "Strike already recorded for this due date", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record notice", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoticeDTO(rec))
}

// ListNotices returns a tenancy's notice history.
func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListNotices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notices", err)
		return
	}
	writeJSON(w, http.StatusOK, toNoticeDTOs(records))
}

// ApplyNoticeEvent applies a lifecycle event to a notice.
func (h *Handler) ApplyNoticeEvent(w http.ResponseWriter, r *http.Request) {
	noticeID := chi.URLParam(r, "id")
	var req NoticeEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.findNotice(r, noticeID)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Notice not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load notice", err)
		return
	}

	next, err := h.Lifecycle.Apply(r.Context(), rec.State, notice.Event(req.Event))
	if err != nil {
		var terr *notice.TransitionError
		if errors.As(err, &terr) {
			writeError(w, http.StatusConflict, "Invalid lifecycle transition", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply event", err)
		return
	}

	if err := h.Store.UpdateNoticeState(r.Context(), noticeID, rec.State, next); err != nil {
		writeError(w, http.StatusConflict, "Notice state changed concurrently", err)
		return
	}
	rec.State = next
	writeJSON(w, http.StatusOK, toNoticeDTO(rec))
}

// =============================================================================
// RECONCILIATION HANDLER
// =============================================================================

// Reconcile applies a settings change to a tenancy: the pre-change balance
// is folded into the new schedule's opening arrears and the stored schedule
// is replaced.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	tenancyID := chi.URLParam(r, "id")
	var req ReconcileRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.Store.GetTenancy(r.Context(), tenancyID)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tenancy not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenancy", err)
		return
	}

	change, effective, err := changeFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings change", err)
		return
	}

	payments, err := h.Store.ListPayments(r.Context(), tenancyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	result, err := engine.Reconcile(t.Schedule, engine.TrackedPayments(t.Schedule, payments), change, effective)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidSchedule) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to reconcile settings change", err)
		return
	}

	if err := h.Store.UpdateSchedule(r.Context(), tenancyID, result.NewSchedule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store new schedule", err)
		return
	}

	t.Schedule = result.NewSchedule
	writeJSON(w, http.StatusOK, ReconcileResultDTO{
		Tenancy:          toTenancyDTO(t),
		PreChangeBalance: result.PreChangeBalance.StringFixed(2),
		CarriedCredit:    result.CarriedCredit.StringFixed(2),
	})
}

// =============================================================================
// SERVICE DATE HANDLER
// =============================================================================

// ServiceDate computes the official service date and deadline chain for a
// hypothetical send, without recording anything.
func (h *Handler) ServiceDate(w http.ResponseWriter, r *http.Request) {
	var req ServiceDateRequest
	if !h.decode(w, r, &req) {
		return
	}

	sentAt, err := parseSentAt(req.SentAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sent_at (use RFC 3339)", err)
		return
	}

	timeline, err := h.Engine.OfficialServiceDate(sentAt, engine.Region(req.Region))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute service date", err)
		return
	}
	writeJSON(w, http.StatusOK, ServiceTimelineDTO{
		OfficialServiceDate: timeline.OfficialServiceDate.String(),
		RemedyExpiry:        timeline.RemedyExpiry.String(),
		TribunalDeadline:    timeline.TribunalDeadline.String(),
	})
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// decode parses and validates a JSON request body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// loadTenancyInputs fetches the tenancy and the payments its balance math may
// use, writing the error response itself on failure. The log is windowed at
// the schedule's tracking start: payments a reconciliation already folded
// into opening arrears must not subtract twice.
func (h *Handler) loadTenancyInputs(w http.ResponseWriter, r *http.Request) (sqlite.Tenancy, []engine.Payment, bool) {
	id := chi.URLParam(r, "id")

	t, err := h.Store.GetTenancy(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tenancy not found", nil)
		return sqlite.Tenancy{}, nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenancy", err)
		return sqlite.Tenancy{}, nil, false
	}

	payments, err := h.Store.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return sqlite.Tenancy{}, nil, false
	}
	return t, engine.TrackedPayments(t.Schedule, payments), true
}

// findNotice locates a notice by scanning its tenancy's records. Notices are
// few per tenancy; a dedicated lookup is not worth a second query path yet.
func (h *Handler) findNotice(r *http.Request, noticeID string) (sqlite.NoticeRecord, error) {
	tenancies, err := h.Store.ListTenancies(r.Context())
	if err != nil {
		return sqlite.NoticeRecord{}, err
	}
	for _, t := range tenancies {
		records, err := h.Store.ListNotices(r.Context(), t.ID)
		if err != nil {
			return sqlite.NoticeRecord{}, err
		}
		for _, rec := range records {
			if rec.Notice.NoticeID == noticeID {
				return rec, nil
			}
		}
	}
	return sqlite.NoticeRecord{}, sqlite.ErrNotFound
}

func (h *Handler) asOf(r *http.Request) (engine.TimePoint, error) {
	if s := r.URL.Query().Get("as_of"); s != "" {
		return engine.ParseDate(s)
	}
	return h.Now(), nil
}

// parseSentAt keeps minute precision: the 5 PM cutoff needs the hour.
func parseSentAt(s string) (engine.TimePoint, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return engine.TimePoint{}, err
	}
	return engine.NewTimePointAt(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()), nil
}

func scheduleFromRequest(req CreateTenancyRequest) (engine.RentSchedule, error) {
	rent, err := decimal.NewFromString(req.RentAmount)
	if err != nil {
		return engine.RentSchedule{}, err
	}
	start, err := engine.ParseDate(req.TrackingStart)
	if err != nil {
		return engine.RentSchedule{}, err
	}
	arrears := decimal.Zero
	if req.OpeningArrears != "" {
		if arrears, err = decimal.NewFromString(req.OpeningArrears); err != nil {
			return engine.RentSchedule{}, err
		}
	}

	anchor, err := anchorFromRequest(req.AnchorWeekday, req.AnchorDay)
	if err != nil {
		return engine.RentSchedule{}, err
	}

	return engine.RentSchedule{
		Frequency:      engine.Frequency(req.Frequency),
		RentAmount:     rent,
		DueAnchor:      anchor,
		TrackingStart:  start,
		OpeningArrears: arrears,
	}, nil
}

func anchorFromRequest(weekday *string, day *int) (engine.DueAnchor, error) {
	var anchor engine.DueAnchor
	if weekday != nil {
		wd, err := engine.ParseWeekday(*weekday)
		if err != nil {
			return engine.DueAnchor{}, err
		}
		anchor.Weekday = &wd
	}
	if day != nil {
		d := *day
		anchor.DayOfMonth = &d
	}
	return anchor, nil
}

func changeFromRequest(req ReconcileRequest) (engine.ScheduleChange, engine.TimePoint, error) {
	effective, err := engine.ParseDate(req.EffectiveDate)
	if err != nil {
		return engine.ScheduleChange{}, engine.TimePoint{}, err
	}

	var change engine.ScheduleChange
	if req.RentAmount != nil {
		rent, err := decimal.NewFromString(*req.RentAmount)
		if err != nil {
			return engine.ScheduleChange{}, engine.TimePoint{}, err
		}
		change.RentAmount = &rent
	}
	if req.Frequency != nil {
		f := engine.Frequency(*req.Frequency)
		change.Frequency = &f
	}
	if req.AnchorWeekday != nil || req.AnchorDay != nil {
		anchor, err := anchorFromRequest(req.AnchorWeekday, req.AnchorDay)
		if err != nil {
			return engine.ScheduleChange{}, engine.TimePoint{}, err
		}
		change.DueAnchor = &anchor
	}
	return change, effective, nil
}

func engineNotices(records []sqlite.NoticeRecord) []engine.StrikeNotice {
	notices := make([]engine.StrikeNotice, len(records))
	for i, rec := range records {
		notices[i] = rec.Notice
	}
	return notices
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
