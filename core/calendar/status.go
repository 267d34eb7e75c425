package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-calendar/core"
)

type Status string

// Event statuses
const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

var AllStatuses = []Status{StatusUpcoming, StatusOngoing, StatusCompleted}

func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// NextStatus returns the status of ev at now.
// Only events dated on now's day move: an upcoming event becomes ongoing once its start time
// is reached and any event becomes completed once its end time is reached.
func NextStatus(ev Event, now time.Time) Status {
	status := ev.Status
	if status == "" {
		status = StatusUpcoming
	}
	if ev.Date != ISODate(now) {
		return status
	}
	start, end, err := ev.Window(now.Location())
	if err != nil {
		return status
	}

	switch {
	case !now.Before(end):
		return StatusCompleted
	case status == StatusUpcoming && !now.Before(start):
		return StatusOngoing
	}
	return status
}

// ResolveStatuses sets every event's status as of now, in place.
func ResolveStatuses(events []Event, now time.Time) []Event {
	for i := range events {
		events[i].Status = NextStatus(events[i], now)
	}
	return events
}

type Transition struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

func (t Transition) String() string {
	return fmt.Sprintf("%s (%s): %s -> %s", t.Title, t.EventID, t.From, t.To)
}

// StatusTracker keeps a snapshot of today's events and their statuses, recomputed on every Refresh.
// Transitions are never persisted.
type StatusTracker struct {
	repo    Repository
	loc     *time.Location
	logger  core.Logger
	nowFunc func() time.Time

	mu       sync.RWMutex
	day      string
	events   []Event
	statuses map[string]Status // as of the previous tick, for transition logging only
	updated  time.Time
	writes   uint64 // bumped by MarkStale
	seen     uint64 // writes observed by the last refresh
}

func NewStatusTracker(repo Repository, logger core.Logger, conf *core.Config) *StatusTracker {
	loc := conf.Calendar.Location
	if loc == nil {
		loc = time.UTC
	}
	return &StatusTracker{
		repo:     repo,
		loc:      loc,
		logger:   logger,
		nowFunc:  time.Now,
		statuses: make(map[string]Status),
	}
}

// SetNowFunc replaces the tracker's clock.
func (t *StatusTracker) SetNowFunc(fn func() time.Time) { t.nowFunc = fn }

// Refresh loads today's events and recomputes their statuses, returning the transitions since the previous tick.
func (t *StatusTracker) Refresh(ctx context.Context) ([]Transition, error) {
	now := t.nowFunc().In(t.loc)
	today := ISODate(now)

	t.mu.RLock()
	writes := t.writes
	t.mu.RUnlock()

	events, err := t.repo.QueryEvents(ctx, &QueryFilter{DateFrom: today, DateTo: today}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying today's events")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.statuses
	if t.day != today {
		prev = make(map[string]Status)
	}

	var transitions []Transition
	statuses := make(map[string]Status, len(events))
	for i := range events {
		ev := &events[i]
		from, ok := prev[ev.ID]
		if !ok {
			from = ev.Status
		}
		if from == "" {
			from = StatusUpcoming
		}
		// always derived from the stored status, which NextStatus only moves forward
		ev.Status = NextStatus(*ev, now)
		statuses[ev.ID] = ev.Status
		if ev.Status != from {
			transitions = append(transitions, Transition{EventID: ev.ID, Title: ev.Title, From: from, To: ev.Status})
		}
	}

	t.day = today
	t.events = events
	t.statuses = statuses
	t.updated = now
	t.seen = writes

	for _, tr := range transitions {
		t.logger.Info("calendar: event status changed: " + tr.String())
	}
	return transitions, nil
}

// Run refreshes the snapshot, logging failures. It is meant to be scheduled on a recurring tick.
func (t *StatusTracker) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := t.Refresh(ctx); err != nil {
		t.logger.Error(fmt.Sprintf("calendar: refreshing statuses: %v", err), err)
	}
}

// MarkStale flags the snapshot as outdated, events having been written since the last refresh.
func (t *StatusTracker) MarkStale() {
	t.mu.Lock()
	t.writes++
	t.mu.Unlock()
}

func (t *StatusTracker) Stale() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.writes != t.seen
}

// Snapshot returns a copy of today's events as of the last refresh.
func (t *StatusTracker) Snapshot() (day string, events []Event, updated time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	events = make([]Event, len(t.events))
	copy(events, t.events)
	return t.day, events, t.updated
}
