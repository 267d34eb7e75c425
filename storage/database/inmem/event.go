package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
)

type eventRepository struct {
	db *eventTable
}

var _ calendar.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event}
}

func copyEvent(ev calendar.Event) calendar.Event {
	if ev.Tags != nil {
		tags := make([]string, len(ev.Tags))
		copy(tags, ev.Tags)
		ev.Tags = tags
	}
	return ev
}

func (repo *eventRepository) CreateEvent(_ context.Context, ev calendar.Event) (calendar.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ev.ID = uuid.New().String()
	stored := copyEvent(ev)
	repo.db.table[ev.ID] = &stored
	return ev, nil
}

func (repo *eventRepository) QueryEvents(_ context.Context, filter *calendar.QueryFilter, ordering []core.DBOrdering) ([]calendar.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	criteria := filter.Criteria()
	events := make([]calendar.Event, 0, len(repo.db.table))
	for _, ev := range repo.db.table {
		if filter != nil {
			if filter.DateFrom != "" && ev.Date < filter.DateFrom {
				continue
			}
			if filter.DateTo != "" && ev.Date > filter.DateTo {
				continue
			}
		}
		if criteria.Match(*ev) {
			events = append(events, copyEvent(*ev))
		}
	}

	sortEvents(events, ordering)
	return events, nil
}

// compareField compares a & b on field. Unknown fields compare equal.
func compareField(a, b calendar.Event, field string) int {
	switch field {
	case "date":
		return strings.Compare(a.Date, b.Date)
	case "start_time":
		return strings.Compare(a.StartTime, b.StartTime)
	case "end_time":
		return strings.Compare(a.EndTime, b.EndTime)
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "type":
		return strings.Compare(string(a.Type), string(b.Type))
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

func sortEvents(events []calendar.Event, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{
			{Field: "date", Ascending: true},
			{Field: "start_time", Ascending: true},
			{Field: "created_at", Ascending: true},
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(events[i], events[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return events[i].ID < events[j].ID
	})
}

func (repo *eventRepository) GetEvent(_ context.Context, id string) (calendar.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ev, ok := repo.db.table[id]; ok {
		return copyEvent(*ev), nil
	}
	return calendar.Event{}, calendar.ErrNotFound
}

func (repo *eventRepository) UpdateEvent(_ context.Context, ev calendar.Event) (calendar.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[ev.ID]
	if !ok {
		return calendar.Event{}, calendar.ErrNotFound
	}
	ev.CreatedAt = stored.CreatedAt
	updated := copyEvent(ev)
	repo.db.table[ev.ID] = &updated
	return ev, nil
}

func (repo *eventRepository) DeleteEventsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
