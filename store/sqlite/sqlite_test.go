package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronven594/rentally-sub000/engine"
	"github.com/ronven594/rentally-sub000/notice"
	"github.com/ronven594/rentally-sub000/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTenancy(id string) sqlite.Tenancy {
	wd := time.Wednesday
	return sqlite.Tenancy{
		ID:      id,
		Address: "12 Karangahape Rd",
		Region:  "auckland",
		Schedule: engine.RentSchedule{
			Frequency:      engine.Weekly,
			RentAmount:     decimal.NewFromInt(450),
			DueAnchor:      engine.DueAnchor{Weekday: &wd},
			TrackingStart:  engine.NewTimePoint(2026, time.January, 5),
			OpeningArrears: decimal.NewFromInt(120),
		},
	}
}

func TestStore_TenancyRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	got, err := s.GetTenancy(ctx, "t-1")
	require.NoError(t, err)

	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, engine.Region("auckland"), got.Region)
	assert.Equal(t, engine.Weekly, got.Schedule.Frequency)
	require.NotNil(t, got.Schedule.DueAnchor.Weekday)
	assert.Equal(t, time.Wednesday, *got.Schedule.DueAnchor.Weekday)
	assert.Nil(t, got.Schedule.DueAnchor.DayOfMonth)
	assert.True(t, got.Schedule.RentAmount.Equal(decimal.NewFromInt(450)))
	assert.True(t, got.Schedule.OpeningArrears.Equal(decimal.NewFromInt(120)))
	assert.True(t, got.Schedule.TrackingStart.Equal(engine.NewTimePoint(2026, time.January, 5)))
}

func TestStore_GetTenancy_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.GetTenancy(context.Background(), "missing")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestStore_CreateTenancy_InvalidScheduleRejected(t *testing.T) {
	s := newStore(t)

	bad := testTenancy("t-bad")
	bad.Schedule.RentAmount = decimal.NewFromInt(-1)

	err := s.CreateTenancy(context.Background(), bad)
	assert.ErrorIs(t, err, engine.ErrInvalidSchedule)
}

func TestStore_UpdateSchedule_ReplacesGrid(t *testing.T) {
	// GIVEN: A weekly tenancy
	// WHEN: Reconciliation moves it to monthly on the 1st with carried arrears
	// THEN: The stored schedule reflects the new grid; payments are untouched
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	day := 1
	next := engine.RentSchedule{
		Frequency:      engine.Monthly,
		RentAmount:     decimal.NewFromInt(1950),
		DueAnchor:      engine.DueAnchor{DayOfMonth: &day},
		TrackingStart:  engine.NewTimePoint(2026, time.March, 2),
		OpeningArrears: decimal.NewFromInt(900),
	}
	require.NoError(t, s.UpdateSchedule(ctx, "t-1", next))

	got, err := s.GetTenancy(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, engine.Monthly, got.Schedule.Frequency)
	require.NotNil(t, got.Schedule.DueAnchor.DayOfMonth)
	assert.Equal(t, 1, *got.Schedule.DueAnchor.DayOfMonth)
	assert.Nil(t, got.Schedule.DueAnchor.Weekday)
	assert.True(t, got.Schedule.OpeningArrears.Equal(decimal.NewFromInt(900)))
}

func TestStore_UpdateSchedule_MissingTenancy(t *testing.T) {
	s := newStore(t)

	err := s.UpdateSchedule(context.Background(), "missing", testTenancy("x").Schedule)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestStore_Payments_AppendAndListInOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	// Inserted out of date order; listed oldest first.
	p2 := engine.Payment{ID: "p-2", Amount: decimal.NewFromInt(450), Date: engine.NewTimePoint(2026, time.January, 14)}
	p1 := engine.Payment{ID: "p-1", Amount: decimal.RequireFromString("450.50"), Date: engine.NewTimePoint(2026, time.January, 7)}
	require.NoError(t, s.AddPayment(ctx, "t-1", p2))
	require.NoError(t, s.AddPayment(ctx, "t-1", p1))

	got, err := s.ListPayments(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-1", got[0].ID)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("450.50")))
	assert.Equal(t, "p-2", got[1].ID)
}

func TestStore_Notices_DuplicateStrikePerDueDateRejected(t *testing.T) {
	// GIVEN: A strike already recorded for the Jan 15 due date
	// WHEN: A delivery retry records a second strike for the same due date
	// THEN: The insert fails with ErrDuplicateStrike
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	rec := sqlite.NoticeRecord{
		TenancyID: "t-1",
		State:     notice.StateServed,
		Notice: engine.StrikeNotice{
			NoticeID:            "n-1",
			Type:                engine.NoticeStrike,
			OfficialServiceDate: engine.NewTimePoint(2026, time.January, 23),
			DueDateFor:          engine.NewTimePoint(2026, time.January, 15),
			AmountOwed:          decimal.NewFromInt(450),
		},
	}
	require.NoError(t, s.AddNotice(ctx, rec))

	retry := rec
	retry.Notice.NoticeID = "n-1-retry"
	err := s.AddNotice(ctx, retry)
	assert.ErrorIs(t, err, sqlite.ErrDuplicateStrike)

	// Only the original survives.
	got, err := s.ListNotices(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n-1", got[0].Notice.NoticeID)
}

func TestStore_Notices_RemedyForSameDueDateAllowed(t *testing.T) {
	// The dedup index only covers strikes; a remedy notice may share the
	// due date with the strike it accompanies.
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	dueFor := engine.NewTimePoint(2026, time.January, 15)
	strike := sqlite.NoticeRecord{
		TenancyID: "t-1",
		State:     notice.StateServed,
		Notice: engine.StrikeNotice{
			NoticeID:            "n-strike",
			Type:                engine.NoticeStrike,
			OfficialServiceDate: engine.NewTimePoint(2026, time.January, 23),
			DueDateFor:          dueFor,
			AmountOwed:          decimal.NewFromInt(450),
		},
	}
	remedy := sqlite.NoticeRecord{
		TenancyID: "t-1",
		State:     notice.StateServed,
		Notice: engine.StrikeNotice{
			NoticeID:            "n-remedy",
			Type:                engine.NoticeRemedy,
			OfficialServiceDate: engine.NewTimePoint(2026, time.January, 23),
			DueDateFor:          dueFor,
			AmountOwed:          decimal.NewFromInt(450),
		},
	}

	require.NoError(t, s.AddNotice(ctx, strike))
	require.NoError(t, s.AddNotice(ctx, remedy))
}

func TestStore_Notices_ListedInServiceOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	for _, n := range []struct {
		id     string
		served engine.TimePoint
		dueFor engine.TimePoint
	}{
		{"n-2", engine.NewTimePoint(2026, time.February, 20), engine.NewTimePoint(2026, time.February, 12)},
		{"n-1", engine.NewTimePoint(2026, time.January, 23), engine.NewTimePoint(2026, time.January, 15)},
	} {
		require.NoError(t, s.AddNotice(ctx, sqlite.NoticeRecord{
			TenancyID: "t-1",
			State:     notice.StateServed,
			Notice: engine.StrikeNotice{
				NoticeID:            n.id,
				Type:                engine.NoticeStrike,
				OfficialServiceDate: n.served,
				DueDateFor:          n.dueFor,
				AmountOwed:          decimal.NewFromInt(450),
			},
		}))
	}

	got, err := s.ListNotices(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n-1", got[0].Notice.NoticeID)
	assert.Equal(t, "n-2", got[1].Notice.NoticeID)
}

func TestStore_UpdateNoticeState_GuardsCurrentState(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	rec := sqlite.NoticeRecord{
		TenancyID: "t-1",
		State:     notice.StateSent,
		Notice: engine.StrikeNotice{
			NoticeID:            "n-1",
			Type:                engine.NoticeStrike,
			OfficialServiceDate: engine.NewTimePoint(2026, time.January, 23),
			DueDateFor:          engine.NewTimePoint(2026, time.January, 15),
			AmountOwed:          decimal.NewFromInt(450),
		},
	}
	require.NoError(t, s.AddNotice(ctx, rec))

	require.NoError(t, s.UpdateNoticeState(ctx, "n-1", notice.StateSent, notice.StateServed))

	// A stale writer still holding the old state loses.
	err := s.UpdateNoticeState(ctx, "n-1", notice.StateSent, notice.StateServed)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	got, err := s.ListNotices(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, notice.StateServed, got[0].State)
}

func TestStore_ListTenancies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-2")))
	require.NoError(t, s.CreateTenancy(ctx, testTenancy("t-1")))

	got, err := s.ListTenancies(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t-1", got[0].ID)
	assert.Equal(t, "t-2", got[1].ID)
}
