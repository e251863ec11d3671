/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as decimal strings ("450.00"), never floats.
  Parsing happens once at the boundary; everything inside is decimal.

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  them before touching domain logic. Date fields are validated as
  YYYY-MM-DD by the datetime tag, then parsed with engine.ParseDate.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain types these mirror
*/
package api

import (
	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/store/sqlite"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateTenancyRequest is the request to create a tenancy.
type CreateTenancyRequest struct {
	ID             string  `json:"id" validate:"required"`
	Address        string  `json:"address"`
	Region         string  `json:"region" validate:"required"`
	Frequency      string  `json:"frequency" validate:"required,oneof=weekly fortnightly monthly"`
	RentAmount     string  `json:"rent_amount" validate:"required"`
	AnchorWeekday  *string `json:"anchor_weekday,omitempty"`
	AnchorDay      *int    `json:"anchor_day,omitempty" validate:"omitempty,min=1,max=31"`
	TrackingStart  string  `json:"tracking_start" validate:"required,datetime=2006-01-02"`
	OpeningArrears string  `json:"opening_arrears,omitempty"`
}

// AddPaymentRequest is the request to append a payment.
type AddPaymentRequest struct {
	ID     string `json:"id" validate:"required"`
	Amount string `json:"amount" validate:"required"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
}

// RecordNoticeRequest is the request to record a strike or remedy notice.
// sent_at carries a timestamp because the 5 PM cutoff decides which day the
// notice is officially served.
type RecordNoticeRequest struct {
	ID         string `json:"id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=strike remedy"`
	SentAt     string `json:"sent_at" validate:"required"`
	DueDateFor string `json:"due_date_for" validate:"required,datetime=2006-01-02"`
	AmountOwed string `json:"amount_owed" validate:"required"`
}

// NoticeEventRequest applies a lifecycle event to a notice.
type NoticeEventRequest struct {
	Event string `json:"event" validate:"required,oneof=queue send serve remedy expire escalate discard"`
}

// ReconcileRequest applies a settings change to a tenancy. Only the fields
// present change; the rest of the schedule carries over.
type ReconcileRequest struct {
	EffectiveDate string  `json:"effective_date" validate:"required,datetime=2006-01-02"`
	RentAmount    *string `json:"rent_amount,omitempty"`
	Frequency     *string `json:"frequency,omitempty" validate:"omitempty,oneof=weekly fortnightly monthly"`
	AnchorWeekday *string `json:"anchor_weekday,omitempty"`
	AnchorDay     *int    `json:"anchor_day,omitempty" validate:"omitempty,min=1,max=31"`
}

// ServiceDateRequest asks for the official service date of a hypothetical
// send, without recording anything.
type ServiceDateRequest struct {
	SentAt string `json:"sent_at" validate:"required"`
	Region string `json:"region" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// TenancyDTO represents a tenancy in API responses.
type TenancyDTO struct {
	ID             string  `json:"id"`
	Address        string  `json:"address,omitempty"`
	Region         string  `json:"region"`
	Frequency      string  `json:"frequency"`
	RentAmount     string  `json:"rent_amount"`
	AnchorWeekday  *string `json:"anchor_weekday,omitempty"`
	AnchorDay      *int    `json:"anchor_day,omitempty"`
	TrackingStart  string  `json:"tracking_start"`
	OpeningArrears string  `json:"opening_arrears"`
}

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// BalanceDTO is a balance snapshot in API responses.
type BalanceDTO struct {
	AsOf                string  `json:"as_of"`
	TotalRentDue        string  `json:"total_rent_due"`
	TotalPayments       string  `json:"total_payments"`
	OpeningArrears      string  `json:"opening_arrears"`
	CurrentBalance      string  `json:"current_balance"`
	CyclesElapsed       int     `json:"cycles_elapsed"`
	CyclesPaidInFull    int     `json:"cycles_paid_in_full"`
	CyclesUnpaid        int     `json:"cycles_unpaid"`
	FirstDueDate        string  `json:"first_due_date"`
	NextDueDate         string  `json:"next_due_date"`
	PaidUntil           *string `json:"paid_until,omitempty"`
	OldestUnpaidDueDate *string `json:"oldest_unpaid_due_date,omitempty"`
	DaysOverdue         int     `json:"days_overdue"`
	IsOverdue           bool    `json:"is_overdue"`
	HasCredit           bool    `json:"has_credit"`
	CreditAmount        string  `json:"credit_amount"`
}

// ComplianceDTO is a compliance evaluation in API responses.
type ComplianceDTO struct {
	AsOf               string     `json:"as_of"`
	Region             string     `json:"region"`
	Status             string     `json:"status"`
	DaysInArrears      int        `json:"days_in_arrears"`
	WorkingDaysOverdue int        `json:"working_days_overdue"`
	ActiveStrikeCount  int        `json:"active_strike_count"`
	NextStrikeNumber   *int       `json:"next_strike_number,omitempty"`
	TerminationBasis   *string    `json:"termination_basis,omitempty"`
	EligibleDueDates   []string   `json:"eligible_due_dates"`
	CanIssueStrike     bool       `json:"can_issue_strike"`
	Balance            BalanceDTO `json:"balance"`
}

// NoticeDTO represents a recorded notice.
type NoticeDTO struct {
	ID                  string `json:"id"`
	TenancyID           string `json:"tenancy_id"`
	Type                string `json:"type"`
	State               string `json:"state"`
	OfficialServiceDate string `json:"official_service_date"`
	DueDateFor          string `json:"due_date_for"`
	AmountOwed          string `json:"amount_owed"`
}

// ServiceTimelineDTO is the deadline chain hanging off a service date.
type ServiceTimelineDTO struct {
	OfficialServiceDate string `json:"official_service_date"`
	RemedyExpiry        string `json:"remedy_expiry"`
	TribunalDeadline    string `json:"tribunal_deadline"`
}

// ReconcileResultDTO is the outcome of a settings change.
type ReconcileResultDTO struct {
	Tenancy          TenancyDTO `json:"tenancy"`
	PreChangeBalance string     `json:"pre_change_balance"`
	CarriedCredit    string     `json:"carried_credit"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTenancyDTO(t sqlite.Tenancy) TenancyDTO {
	dto := TenancyDTO{
		ID:             t.ID,
		Address:        t.Address,
		Region:         string(t.Region),
		Frequency:      string(t.Schedule.Frequency),
		RentAmount:     t.Schedule.RentAmount.StringFixed(2),
		TrackingStart:  t.Schedule.TrackingStart.String(),
		OpeningArrears: t.Schedule.OpeningArrears.StringFixed(2),
	}
	if t.Schedule.DueAnchor.Weekday != nil {
		w := t.Schedule.DueAnchor.Weekday.String()
		dto.AnchorWeekday = &w
	}
	if t.Schedule.DueAnchor.DayOfMonth != nil {
		d := *t.Schedule.DueAnchor.DayOfMonth
		dto.AnchorDay = &d
	}
	return dto
}

func toBalanceDTO(b engine.BalanceSnapshot) BalanceDTO {
	dto := BalanceDTO{
		AsOf:             b.AsOf.String(),
		TotalRentDue:     b.TotalRentDue.StringFixed(2),
		TotalPayments:    b.TotalPayments.StringFixed(2),
		OpeningArrears:   b.OpeningArrears.StringFixed(2),
		CurrentBalance:   b.CurrentBalance.StringFixed(2),
		CyclesElapsed:    b.CyclesElapsed,
		CyclesPaidInFull: b.CyclesPaidInFull,
		CyclesUnpaid:     b.CyclesUnpaid,
		FirstDueDate:     b.FirstDueDate.String(),
		NextDueDate:      b.NextDueDate.String(),
		DaysOverdue:      b.DaysOverdue,
		IsOverdue:        b.IsOverdue,
		HasCredit:        b.HasCredit,
		CreditAmount:     b.CreditAmount.StringFixed(2),
	}
	if b.PaidUntil != nil {
		s := b.PaidUntil.String()
		dto.PaidUntil = &s
	}
	if b.OldestUnpaidDueDate != nil {
		s := b.OldestUnpaidDueDate.String()
		dto.OldestUnpaidDueDate = &s
	}
	return dto
}

func toComplianceDTO(c engine.ComplianceStatus) ComplianceDTO {
	dto := ComplianceDTO{
		AsOf:               c.AsOf.String(),
		Region:             string(c.Region),
		Status:             string(c.Status),
		DaysInArrears:      c.DaysInArrears,
		WorkingDaysOverdue: c.WorkingDaysOverdue,
		ActiveStrikeCount:  c.ActiveStrikeCount,
		EligibleDueDates:   make([]string, len(c.EligibleDueDates)),
		CanIssueStrike:     c.CanIssueStrike,
		Balance:            toBalanceDTO(c.Snapshot),
	}
	if c.NextStrikeNumber != nil {
		n := *c.NextStrikeNumber
		dto.NextStrikeNumber = &n
	}
	if c.TerminationBasis != nil {
		b := string(*c.TerminationBasis)
		dto.TerminationBasis = &b
	}
	for i, d := range c.EligibleDueDates {
		dto.EligibleDueDates[i] = d.String()
	}
	return dto
}

func toNoticeDTO(rec sqlite.NoticeRecord) NoticeDTO {
	return NoticeDTO{
		ID:                  rec.Notice.NoticeID,
		TenancyID:           rec.TenancyID,
		Type:                string(rec.Notice.Type),
		State:               string(rec.State),
		OfficialServiceDate: rec.Notice.OfficialServiceDate.String(),
		DueDateFor:          rec.Notice.DueDateFor.String(),
		AmountOwed:          rec.Notice.AmountOwed.StringFixed(2),
	}
}

func toNoticeDTOs(recs []sqlite.NoticeRecord) []NoticeDTO {
	dtos := make([]NoticeDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toNoticeDTO(rec)
	}
	return dtos
}
