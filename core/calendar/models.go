package calendar

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-calendar/core"
)

type EventType string

// Event types
const (
	TypeClass      EventType = "class"
	TypeTest       EventType = "test"
	TypeAssignment EventType = "assignment"
	TypeExam       EventType = "exam"
	TypeMeeting    EventType = "meeting"
	TypeEvent      EventType = "event"
	TypeHoliday    EventType = "holiday"
)

var (
	AllTypes = []EventType{TypeClass, TypeTest, TypeAssignment, TypeExam, TypeMeeting, TypeEvent, TypeHoliday}

	Types = []TypeChoice{
		{Name: "Class", Value: TypeClass},
		{Name: "Test", Value: TypeTest},
		{Name: "Assignment", Value: TypeAssignment},
		{Name: "Exam", Value: TypeExam},
		{Name: "Meeting", Value: TypeMeeting},
		{Name: "Event", Value: TypeEvent},
		{Name: "Holiday", Value: TypeHoliday},
	}
)

func (t EventType) IsValid() bool {
	for _, typ := range AllTypes {
		if t == typ {
			return true
		}
	}
	return false
}

type TypeChoice struct {
	Name  string    `json:"name"`
	Value EventType `json:"value"`
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	Subject     string    `json:"subject"`
	Instructor  string    `json:"instructor"`
	Location    string    `json:"location"`
	Tags        []string  `json:"tags"`
	Date        string    `json:"date"`       // YYYY-MM-DD
	StartTime   string    `json:"start_time"` // HH:MM
	EndTime     string    `json:"end_time"`   // HH:MM
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Window returns the instants the event starts and ends at, in loc.
func (ev Event) Window(loc *time.Location) (start, end time.Time, err error) {
	if start, err = At(ev.Date, ev.StartTime, loc); err != nil {
		return
	}
	end, err = At(ev.Date, ev.EndTime, loc)
	return
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title       string    `json:"title" validate:"required,notblank"`
	Description string    `json:"description"`
	Type        EventType `json:"type" validate:"required,eventtype"`
	Subject     string    `json:"subject"`
	Instructor  string    `json:"instructor"`
	Location    string    `json:"location"`
	Tags        []string  `json:"tags" validate:"omitempty,dive,notblank"`
	Date        string    `json:"date" validate:"required,isodate"`
	StartTime   string    `json:"start_time" validate:"required,clock"`
	EndTime     string    `json:"end_time" validate:"required,clock"`
}

func (ne *NewEvent) clean() {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Type = EventType(core.CleanString(string(ne.Type), true /* lower */))
	ne.Subject = core.CleanString(ne.Subject)
	ne.Instructor = core.CleanString(ne.Instructor)
	ne.Location = core.CleanString(ne.Location)
	ne.Tags = cleanTags(ne.Tags)
	ne.Date = core.CleanString(ne.Date)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.clean()
	return validate.Struct(ne)
}

// UpdateEvent defines what information may be provided to modify an existing Event.
// Blank fields keep their stored value. A blank Status is left blank for the service to resolve
// against the stored record, orig may carry a status derived from the clock.
type UpdateEvent struct {
	Title       string    `json:"title" validate:"required,notblank"`
	Description *string   `json:"description"`
	Type        EventType `json:"type" validate:"required,eventtype"`
	Subject     *string   `json:"subject"`
	Instructor  *string   `json:"instructor"`
	Location    *string   `json:"location"`
	Tags        []string  `json:"tags" validate:"omitempty,dive,notblank"`
	Date        string    `json:"date" validate:"required,isodate"`
	StartTime   string    `json:"start_time" validate:"required,clock"`
	EndTime     string    `json:"end_time" validate:"required,clock"`
	Status      Status    `json:"status" validate:"omitempty,eventstatus"`
}

func (ue *UpdateEvent) Validate(orig Event, validate *validator.Validate) error {
	fallback := func(val, origVal string, lower ...bool) string {
		if v := core.CleanString(val, lower...); v != "" {
			return v
		}
		return origVal
	}
	optional := func(val *string, origVal string) *string {
		if val == nil {
			return &origVal
		}
		v := core.CleanString(*val)
		return &v
	}

	ue.Title = fallback(ue.Title, orig.Title)
	ue.Type = EventType(fallback(string(ue.Type), string(orig.Type), true /* lower */))
	ue.Date = fallback(ue.Date, orig.Date)
	ue.StartTime = fallback(ue.StartTime, orig.StartTime)
	ue.EndTime = fallback(ue.EndTime, orig.EndTime)
	ue.Status = Status(core.CleanString(string(ue.Status), true /* lower */))
	ue.Description = optional(ue.Description, orig.Description)
	ue.Subject = optional(ue.Subject, orig.Subject)
	ue.Instructor = optional(ue.Instructor, orig.Instructor)
	ue.Location = optional(ue.Location, orig.Location)
	if ue.Tags == nil {
		ue.Tags = orig.Tags
	} else {
		ue.Tags = cleanTags(ue.Tags)
	}

	return validate.Struct(ue)
}

type QueryFilter struct {
	Search   string      `query:"search"`
	Types    []EventType `query:"type"`
	DateFrom string      `query:"date_from" validate:"omitempty,isodate"` // inclusive
	DateTo   string      `query:"date_to" validate:"omitempty,isodate"`   // inclusive
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Types == nil && qf.DateFrom == "" && qf.DateTo == ""
}

// Clean normalizes the filter. Search is taken as is, spaces included.
func (qf *QueryFilter) Clean() {
	qf.DateFrom = core.CleanString(qf.DateFrom)
	qf.DateTo = core.CleanString(qf.DateTo)

	types := make([]EventType, 0, len(qf.Types))
	for _, t := range qf.Types {
		if t = EventType(core.CleanString(string(t), true /* lower */)); t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = nil
	}
	qf.Types = types
}

// Criteria returns the in-memory filtering criteria (type toggles & search) of the filter.
func (qf *QueryFilter) Criteria() Criteria {
	if qf == nil {
		return Criteria{}
	}
	return Criteria{Types: ToggleTypes(qf.Types...), Search: qf.Search}
}

func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned = append(cleaned, core.CleanString(tag))
	}
	return cleaned
}
