package calendar

import (
	"bytes"
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-calendar/core"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, ev Event) (Event, error)
		// QueryEvents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Event.Title, Event.Description,
		// Event.Subject, Event.Instructor or Event.Tags.
		// Events are ordered by date & start time unless ordering is provided.
		QueryEvents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, ev Event) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ne NewEvent) (Event, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error)
		GetByID(ctx context.Context, id string) (Event, error)
		Update(ctx context.Context, id string, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, ids ...string) error
		Month(ctx context.Context, year int, month time.Month, filter *QueryFilter) (Month, error)
		Week(ctx context.Context, date string, filter *QueryFilter) (Week, error)
		Today(ctx context.Context) (Today, error)
		ExportICS(ctx context.Context, filter *QueryFilter) (string, error)
		EmailExport(ctx context.Context, filter *QueryFilter, to mail.Address) (int, error)
		Location() *time.Location
		Now() time.Time
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tracker *StatusTracker
		loc     *time.Location
		prodID  string
		nowFunc func() time.Time
	}

	// Today is the agenda of the current day.
	Today struct {
		Date      string    `json:"date"`
		Label     string    `json:"label"`
		Events    []Event   `json:"events"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	exportData struct {
		Name     string
		Count    int
		Period   string
		Filename string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	loc := conf.Calendar.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tracker: NewStatusTracker(repo, logger, conf),
		loc:     loc,
		prodID:  conf.Calendar.ProductID,
		nowFunc: time.Now,
	}
}

// SetNowFunc replaces the clock of the service and its status tracker.
func (svc *Service) SetNowFunc(fn func() time.Time) {
	svc.nowFunc = fn
	svc.tracker.SetNowFunc(fn)
}

func (svc *Service) Tracker() *StatusTracker  { return svc.tracker }
func (svc *Service) Location() *time.Location { return svc.loc }
func (svc *Service) Now() time.Time           { return svc.nowFunc().In(svc.loc) }

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := svc.nowFunc().UTC()
	ev := Event{
		Title:       ne.Title,
		Description: ne.Description,
		Type:        ne.Type,
		Subject:     ne.Subject,
		Instructor:  ne.Instructor,
		Location:    ne.Location,
		Tags:        ne.Tags,
		Date:        ne.Date,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Status:      StatusUpcoming,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}
	created, err := svc.repo.CreateEvent(ctx, ev)
	if err != nil {
		return Event{}, err
	}
	svc.tracker.MarkStale()
	created.Status = NextStatus(created, svc.Now())
	return created, nil
}

// Query returns the events matching filter with their statuses resolved as of now.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error) {
	events, err := svc.repo.QueryEvents(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	return ResolveStatuses(events, svc.Now()), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Event, error) {
	ev, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	ev.Status = NextStatus(ev, svc.Now())
	return ev, nil
}

// Update replaces the event's fields. ue is expected to be validated against the stored event.
// A blank ue.Status keeps the stored status, never the one resolved from the clock.
func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	if ue.Status == "" {
		stored, err := svc.repo.GetEvent(ctx, id)
		if err != nil {
			return Event{}, err
		}
		ue.Status = stored.Status
	}

	ev := Event{
		ID:        id,
		Title:     ue.Title,
		Type:      ue.Type,
		Tags:      ue.Tags,
		Date:      ue.Date,
		StartTime: ue.StartTime,
		EndTime:   ue.EndTime,
		Status:    ue.Status,
		UpdatedAt: svc.nowFunc().UTC(),
	}
	if ue.Description != nil {
		ev.Description = *ue.Description
	}
	if ue.Subject != nil {
		ev.Subject = *ue.Subject
	}
	if ue.Instructor != nil {
		ev.Instructor = *ue.Instructor
	}
	if ue.Location != nil {
		ev.Location = *ue.Location
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}
	if ev.Status == "" {
		ev.Status = StatusUpcoming
	}
	updated, err := svc.repo.UpdateEvent(ctx, ev)
	if err != nil {
		return Event{}, err
	}
	svc.tracker.MarkStale()
	updated.Status = NextStatus(updated, svc.Now())
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := svc.repo.DeleteEventsByID(ctx, ids...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	svc.tracker.MarkStale()
	return nil
}

// rangeFilter narrows filter (copied) to the dates between from and to, inclusive.
func rangeFilter(filter *QueryFilter, from, to string) *QueryFilter {
	qf := QueryFilter{}
	if filter != nil {
		qf = *filter
	}
	if qf.DateFrom == "" || qf.DateFrom < from {
		qf.DateFrom = from
	}
	if qf.DateTo == "" || qf.DateTo > to {
		qf.DateTo = to
	}
	return &qf
}

// Month returns the grid of the given month, padding cells included, with the events matching filter.
func (svc *Service) Month(ctx context.Context, year int, month time.Month, filter *QueryFilter) (Month, error) {
	ref := time.Date(year, month, 1, 0, 0, 0, 0, svc.loc)
	days := MonthDays(ref)

	events, err := svc.Query(ctx, rangeFilter(filter, days[0].Date, days[len(days)-1].Date), nil)
	if err != nil {
		return Month{}, errors.Wrap(err, "querying month events")
	}
	return BuildMonth(ref, svc.Now(), events), nil
}

// Week returns the Sunday to Saturday week holding date, with the events matching filter.
func (svc *Service) Week(ctx context.Context, date string, filter *QueryFilter) (Week, error) {
	anchor, err := ParseDate(date, svc.loc)
	if err != nil {
		return Week{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be a valid date (YYYY-MM-DD)"})
	}
	dates := WeekDates(anchor)

	events, err := svc.Query(ctx, rangeFilter(filter, ISODate(dates[0]), ISODate(dates[6])), nil)
	if err != nil {
		return Week{}, errors.Wrap(err, "querying week events")
	}
	return BuildWeek(anchor, svc.Now(), events), nil
}

// Today returns the status tracker's snapshot, refreshing it first if it belongs to another day
// or events were written since the last tick.
func (svc *Service) Today(ctx context.Context) (Today, error) {
	today := ISODate(svc.Now())

	day, events, updated := svc.tracker.Snapshot()
	if day != today || svc.tracker.Stale() {
		if _, err := svc.tracker.Refresh(ctx); err != nil {
			return Today{}, errors.Wrap(err, "refreshing today's events")
		}
		day, events, updated = svc.tracker.Snapshot()
	}
	return Today{Date: day, Label: FormatDate(day), Events: events, UpdatedAt: updated}, nil
}

func (svc *Service) ExportICS(ctx context.Context, filter *QueryFilter) (string, error) {
	events, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return "", errors.Wrap(err, "querying events")
	}
	return ExportICS(events, svc.loc, svc.prodID, svc.nowFunc())
}

// EmailExport mails the iCalendar export of the events matching filter to `to`.
// It returns the number of exported events.
func (svc *Service) EmailExport(ctx context.Context, filter *QueryFilter, to mail.Address) (int, error) {
	events, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying events")
	}
	content, err := ExportICS(events, svc.loc, svc.prodID, svc.nowFunc())
	if err != nil {
		return 0, err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Your Masomo calendar",
		TemplateName: "calendar_export",
		TemplateData: exportData{
			Name:     to.Name,
			Count:    len(events),
			Period:   period(filter),
			Filename: ICSFilename,
		},
	}
	if err := msg.Attach(bytes.NewBufferString(content), ICSFilename, ICSContentType); err != nil {
		return 0, errors.Wrap(err, "attaching export")
	}

	svc.mailSvc.SendMessages(msg)
	return len(events), nil
}

func period(filter *QueryFilter) string {
	switch {
	case filter == nil || (filter.DateFrom == "" && filter.DateTo == ""):
		return "all dates"
	case filter.DateTo == "":
		return "dates from " + FormatDate(filter.DateFrom)
	case filter.DateFrom == "":
		return "dates until " + FormatDate(filter.DateTo)
	}
	return FormatDate(filter.DateFrom) + " to " + FormatDate(filter.DateTo)
}
