package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"coachbook/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = fld.Tag.Get("query")
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("date_ymd", validateDate)
	_ = v.RegisterValidation("clock_hm", validateClock)
	return v
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

// HH:MM only, seconds are not accepted from clients.
func validateClock(fl validator.FieldLevel) bool {
	_, err := models.ParseClock(fl.Field().String())
	return err == nil
}

var validationMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"date_ymd": "must be a date in YYYY-MM-DD format",
	"clock_hm": "must be a time in HH:MM format",
	"gt":       "must be greater than %s",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
}

// formatValidationErrors joins every field failure into one message.
func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, fe.Param())
		}
		parts = append(parts, fe.Field()+" "+msg)
	}
	return strings.Join(parts, ", ")
}

type availabilityQuery struct {
	Date string `query:"date" validate:"required,date_ymd"`
}

type bookingPayload struct {
	Date        string `json:"date" validate:"required,date_ymd"`
	StartTime   string `json:"start_time" validate:"required,clock_hm"`
	ServiceID   int64  `json:"service_id" validate:"required,gt=0"`
	ClientEmail string `json:"client_email" validate:"required,email"`
}

func (p bookingPayload) toRequest(loc *time.Location) models.BookingRequest {
	date, _ := time.ParseInLocation(models.DateLayout, p.Date, loc)
	start, _ := models.ParseTimeOfDay(p.StartTime)
	return models.BookingRequest{
		Date:        date,
		StartTime:   start,
		ServiceID:   p.ServiceID,
		ClientEmail: strings.TrimSpace(p.ClientEmail),
	}
}

type workRulePayload struct {
	DayOfWeek   *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime   string `json:"start_time" validate:"required,clock_hm"`
	EndTime     string `json:"end_time" validate:"required,clock_hm"`
	SlotMinutes int    `json:"slot_minutes" validate:"required,min=1,max=1440"`
}

func (p workRulePayload) toRule() *models.WorkRule {
	start, _ := models.ParseTimeOfDay(p.StartTime)
	end, _ := models.ParseTimeOfDay(p.EndTime)
	return &models.WorkRule{
		DayOfWeek:   *p.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		SlotMinutes: p.SlotMinutes,
	}
}

type rangeQuery struct {
	From string `query:"from" validate:"required,date_ymd"`
	To   string `query:"to" validate:"omitempty,date_ymd"`
}

func (q rangeQuery) bounds(loc *time.Location) (time.Time, time.Time) {
	from, _ := time.ParseInLocation(models.DateLayout, q.From, loc)
	if q.To == "" {
		return from, from.AddDate(0, 0, models.DefaultExportRangeDays-1)
	}
	to, _ := time.ParseInLocation(models.DateLayout, q.To, loc)
	return from, to
}
