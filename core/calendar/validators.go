package calendar

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-calendar/core"
)

var (
	eventTypeTag  = "eventtype"
	eventTypeText = "invalid event type"

	eventStatusTag  = "eventstatus"
	eventStatusText = "invalid event status"

	endAfterStartTag  = "endafterstart"
	endAfterStartText = "end time must be after start time"
)

// InitValidators registers the calendar's validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(eventTypeTag, eventTypeValidation)
	core.RegisterCustomTranslation(validate, translator, eventTypeTag, eventTypeText)

	_ = validate.RegisterValidation(eventStatusTag, eventStatusValidation)
	core.RegisterCustomTranslation(validate, translator, eventStatusTag, eventStatusText)

	validate.RegisterStructValidation(eventStructValidation, NewEvent{}, UpdateEvent{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

// Custom Validators

func eventTypeValidation(fl validator.FieldLevel) bool {
	return EventType(fl.Field().String()).IsValid()
}

func eventStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).IsValid()
}

// eventStructValidation does struct level validation on NewEvent and UpdateEvent structs.
func eventStructValidation(sl validator.StructLevel) {
	switch ev := sl.Current().Interface().(type) {
	case NewEvent:
		validateWindow(ev.StartTime, ev.EndTime, sl)
	case UpdateEvent:
		validateWindow(ev.StartTime, ev.EndTime, sl)
	}
}

// validateWindow checks that end comes after start. Malformed clocks are reported by the field validators.
func validateWindow(start, end string, sl validator.StructLevel) {
	if !clockOK(start) || !clockOK(end) {
		return
	}
	// HH:MM clocks order lexically
	if end <= start {
		sl.ReportError(end, "end_time", "EndTime", endAfterStartTag, "")
	}
}

func clockOK(clock string) bool {
	return len(clock) == len(ClockLayout) && clock[2] == ':'
}
