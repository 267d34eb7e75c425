package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
)

// Now is the frozen clock of the tests: 2025-06-18 10:30 UTC, a Wednesday.
var Now = time.Date(2025, time.June, 18, 10, 30, 0, 0, time.UTC)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	calendar.InitValidators(validate, translator)
	return validate, translator
}

func CreateEvent(
	t *testing.T,
	svc calendar.ServiceInterface,
	title string,
	typ calendar.EventType,
	date, start, end string,
	tags ...string,
) calendar.Event {
	t.Helper()
	ev, err := svc.Create(context.Background(), calendar.NewEvent{
		Title:     title,
		Type:      typ,
		Tags:      tags,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return ev
}
