package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"coachbook/internal/config"
	"coachbook/internal/database"
	"coachbook/internal/events"
	"coachbook/internal/models"
	"coachbook/internal/schedule"
	"coachbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	// Monday, 10:10 on the coach's clock.
	testNow    = time.Date(2026, 3, 2, 10, 10, 0, 0, time.UTC)
	testMonday = "2026-03-02"
)

type testAPI struct {
	db       *database.DB
	bookings *service.BookingService
	rules    *service.WorkRuleService
	legDay   *models.Service
	retired  *models.Service
	http     *HTTPServer
}

func newTestAPI(t *testing.T, cfg config.APIConfig) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.SetLocation(time.UTC)
	t.Cleanup(func() { db.Close() })

	legDay := &models.Service{Name: "Leg Day Session", DurationMinutes: 60, IsActive: true}
	retired := &models.Service{Name: "Retired Class", DurationMinutes: 45, IsActive: false}
	require.NoError(t, db.UpsertService(ctx, legDay))
	require.NoError(t, db.UpsertService(ctx, retired))
	require.NoError(t, db.CreateWorkRule(ctx, &models.WorkRule{
		DayOfWeek:   1,
		StartTime:   models.MustTimeOfDay("09:00"),
		EndTime:     models.MustTimeOfDay("12:00"),
		SlotMinutes: 30,
	}))

	bus := events.NewEventBus()
	bookings := service.NewBookingService(db, db, db, schedule.New(schedule.EdgeOverrun), bus, &logger,
		service.WithClock(func() time.Time { return testNow }),
		service.WithLocation(time.UTC),
	)
	rules := service.NewWorkRuleService(db, bus, &logger)

	return &testAPI{
		db:       db,
		bookings: bookings,
		rules:    rules,
		legDay:   legDay,
		retired:  retired,
		http:     NewHTTPServer(cfg, bookings, rules, db.PingContext, time.UTC, &logger),
	}
}

func (a *testAPI) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(v))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.http.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func bookingBody(date, start string, serviceID int64) map[string]any {
	return map[string]any{
		"date":         date,
		"start_time":   start,
		"service_id":   serviceID,
		"client_email": "client@example.com",
	}
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
