package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coachbook/internal/config"
	"coachbook/internal/database"
	"coachbook/internal/domain"
	"coachbook/internal/export"
	"coachbook/internal/metrics"
	"coachbook/internal/models"
	"coachbook/internal/schedule"
	"coachbook/internal/service"

	"github.com/rs/zerolog"
)

const pastDateMessage = "Past dates are not bookable."

// writeWorkbook renders the xlsx export; replaced in tests.
var writeWorkbook = export.WriteBookings

// HealthFunc reports whether the backing stores are reachable.
type HealthFunc func(ctx context.Context) error

// HTTPServer exposes the booking API over JSON.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings domain.BookingService
	rules    domain.WorkRuleService
	health   HealthFunc
	loc      *time.Location
	limiter  *rateLimiter
	logger   zerolog.Logger
	handler  http.Handler
	server   *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	bookings domain.BookingService,
	rules domain.WorkRuleService,
	health HealthFunc,
	loc *time.Location,
	logger *zerolog.Logger,
) *HTTPServer {
	if loc == nil {
		loc = time.Local
	}
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		rules:    rules,
		health:   health,
		loc:      loc,
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   componentLogger(logger, "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", srv.handlePing)
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /api/v1/services", srv.handleServices)
	mux.HandleFunc("GET /api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/export", srv.handleExportBookings)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", srv.handleDeleteBooking)
	mux.HandleFunc("GET /api/v1/work-rules", srv.handleListWorkRules)
	mux.HandleFunc("POST /api/v1/work-rules", srv.handleCreateWorkRule)
	mux.HandleFunc("PUT /api/v1/work-rules/{id}", srv.handleUpdateWorkRule)
	mux.HandleFunc("DELETE /api/v1/work-rules/{id}", srv.handleDeleteWorkRule)

	srv.handler = srv.requestIDMiddleware(srv.loggingMiddleware(srv.limiter.Wrap(mux)))
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler is the fully wrapped router, for embedding and tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"pong": true})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "unhealthy", "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.bookings.ListServices(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

type availabilityResponse struct {
	Date    string             `json:"date"`
	Slots   []models.TimeOfDay `json:"slots"`
	Message string             `json:"message,omitempty"`
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := availabilityQuery{Date: r.URL.Query().Get("date")}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", formatValidationErrors(err))
		return
	}
	date, _ := time.ParseInLocation(models.DateLayout, q.Date, s.loc)

	day, err := s.bookings.Availability(r.Context(), date)
	if err != nil {
		metrics.ObserveAvailability("error", 0)
		s.writeServiceError(w, r, err)
		return
	}

	resp := availabilityResponse{Date: models.DateKey(day.Date), Slots: day.Slots}
	result := "ok"
	if day.PastDate {
		resp.Message = pastDateMessage
		result = "past_date"
	}
	metrics.ObserveAvailability(result, len(day.Slots))
	writeJSON(w, http.StatusOK, resp)
}

type serviceView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

type bookingView struct {
	ID          int64            `json:"id"`
	Date        string           `json:"date"`
	StartTime   models.TimeOfDay `json:"start_time"`
	EndTime     models.TimeOfDay `json:"end_time"`
	Service     serviceView      `json:"service"`
	ClientEmail string           `json:"client_email"`
}

func newBookingView(b *models.BookingDetails) bookingView {
	return bookingView{
		ID:        b.ID,
		Date:      models.DateKey(b.Date),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Service: serviceView{
			ID:              b.Service.ID,
			Name:            b.Service.Name,
			DurationMinutes: b.Service.DurationMinutes,
		},
		ClientEmail: b.ClientEmail,
	}
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingPayload
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", formatValidationErrors(err))
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), body.toRequest(s.loc))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookingView(booking))
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.parseRange(w, r)
	if !ok {
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, newBookingView(b))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.parseRange(w, r)
	if !ok {
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := writeWorkbook(&buf, from, to, bookings); err != nil {
		s.writeServiceError(w, r, fmt.Errorf("failed to export bookings: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingView(booking))
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.bookings.CancelBooking(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListWorkRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.rules.ListWorkRules(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *HTTPServer) handleCreateWorkRule(w http.ResponseWriter, r *http.Request) {
	var body workRulePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", formatValidationErrors(err))
		return
	}

	rule := body.toRule()
	if err := s.rules.CreateWorkRule(r.Context(), rule); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *HTTPServer) handleUpdateWorkRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body workRulePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", formatValidationErrors(err))
		return
	}

	rule := body.toRule()
	rule.ID = id
	if err := s.rules.UpdateWorkRule(r.Context(), rule); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *HTTPServer) handleDeleteWorkRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.rules.DeleteWorkRule(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := rangeQuery{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to")}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", formatValidationErrors(err))
		return time.Time{}, time.Time{}, false
	}
	from, to := q.bounds(s.loc)
	return from, to, true
}

// writeServiceError maps domain failures onto HTTP statuses. Anything unrecognised is a 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := schedule.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		if rej.Reason == schedule.ReasonSlotConflict {
			status = http.StatusConflict
		}
		writeError(w, status, string(rej.Reason), rej.Message)
		return
	}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", verr.Error())
	case errors.Is(err, service.ErrInvalidRange):
		writeError(w, http.StatusUnprocessableEntity, "input_invalid", err.Error())
	case errors.Is(err, database.ErrWorkRuleOverlap):
		writeError(w, http.StatusUnprocessableEntity, "work_rule_overlap", "Work rule overlaps an existing rule for that weekday.")
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "too_many_attempts", err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: code, Message: message})
}
