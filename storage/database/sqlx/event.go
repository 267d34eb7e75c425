package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
)

const (
	eventTable    = "calendar_event"
	eventColumns  = "id, title, description, type, subject, instructor, location, tags, date, start_time, end_time, status, created_at, updated_at"
	defaultOrders = "date ASC, start_time ASC, created_at ASC"
)

// orderableFields whitelists the columns events can be ordered by.
var orderableFields = map[string]bool{
	"date":       true,
	"start_time": true,
	"end_time":   true,
	"title":      true,
	"type":       true,
	"status":     true,
	"created_at": true,
	"updated_at": true,
}

type eventRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Type        string         `db:"type"`
	Subject     string         `db:"subject"`
	Instructor  string         `db:"instructor"`
	Location    string         `db:"location"`
	Tags        pq.StringArray `db:"tags"`
	Date        time.Time      `db:"date"`
	StartTime   string         `db:"start_time"`
	EndTime     string         `db:"end_time"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type eventRepository struct {
	db sqlx.ExtContext
}

var _ calendar.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db sqlx.ExtContext) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) toRow(ev calendar.Event) (eventRow, error) {
	date, err := calendar.ParseDate(ev.Date, time.UTC)
	if err != nil {
		return eventRow{}, err
	}
	tags := ev.Tags
	if tags == nil {
		tags = []string{}
	}
	return eventRow{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Type:        string(ev.Type),
		Subject:     ev.Subject,
		Instructor:  ev.Instructor,
		Location:    ev.Location,
		Tags:        tags,
		Date:        date,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		Status:      string(ev.Status),
		CreatedAt:   ev.CreatedAt.UTC(),
		UpdatedAt:   ev.UpdatedAt.UTC(),
	}, nil
}

func (repo eventRepository) fromRow(row eventRow) calendar.Event {
	tags := []string(row.Tags)
	if tags == nil {
		tags = []string{}
	}
	return calendar.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Type:        calendar.EventType(row.Type),
		Subject:     row.Subject,
		Instructor:  row.Instructor,
		Location:    row.Location,
		Tags:        tags,
		Date:        calendar.ISODate(row.Date.UTC()),
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Status:      calendar.Status(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

// trapNoRowsErr maps psql "no rows" err to calendar.ErrNotFound
func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return calendar.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	ev.ID = uuid.New().String()
	row, err := repo.toRow(ev)
	if err != nil {
		return calendar.Event{}, err
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (
		:id, :title, :description, :type, :subject, :instructor, :location, :tags,
		:date, :start_time, :end_time, :status, :created_at, :updated_at)`, eventTable, eventColumns)
	if _, err = sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return calendar.Event{}, errors.Wrap(err, "inserting event")
	}
	return repo.fromRow(row), nil
}

// escapeLike escapes the LIKE wildcards of s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildQuery returns the SELECT statement (and its args) matching filter, sorted per ordering.
func buildQuery(filter *calendar.QueryFilter, ordering []core.DBOrdering) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// events with Title, Description, Subject, Instructor or a tag matching the search keyword
		if search := filter.Search; search != "" {
			p := arg("%" + escapeLike(search) + "%")
			conds = append(conds, fmt.Sprintf(
				"(title ILIKE %[1]s OR description ILIKE %[1]s OR subject ILIKE %[1]s OR instructor ILIKE %[1]s"+
					" OR EXISTS (SELECT 1 FROM UNNEST(tags) tag WHERE tag ILIKE %[1]s))", p))
		}
		if len(filter.Types) > 0 {
			types := make([]string, 0, len(filter.Types))
			for _, t := range filter.Types {
				types = append(types, string(t))
			}
			conds = append(conds, "type = ANY("+arg(pq.Array(types))+")")
		}
		if filter.DateFrom != "" {
			conds = append(conds, "date >= "+arg(filter.DateFrom))
		}
		if filter.DateTo != "" {
			conds = append(conds, "date <= "+arg(filter.DateTo))
		}
	}

	q := fmt.Sprintf("SELECT %s FROM %s", eventColumns, eventTable)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	orders := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if orderableFields[ord.Field] {
			orders = append(orders, ord.String())
		}
	}
	if len(orders) > 0 {
		q += " ORDER BY " + strings.Join(orders, ", ")
	} else {
		q += " ORDER BY " + defaultOrders
	}
	return q, args
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter *calendar.QueryFilter, ordering []core.DBOrdering) ([]calendar.Event, error) {
	q, args := buildQuery(filter, ordering)

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}

	events := make([]calendar.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, repo.fromRow(row))
	}
	return events, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return calendar.Event{}, calendar.ErrNotFound
	}

	var row eventRow
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", eventColumns, eventTable)
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return calendar.Event{}, repo.trapNoRowsErr(err, "finding event by ID")
	}
	return repo.fromRow(row), nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	if _, err := uuid.Parse(ev.ID); err != nil {
		return calendar.Event{}, calendar.ErrNotFound
	}
	row, err := repo.toRow(ev)
	if err != nil {
		return calendar.Event{}, err
	}

	q := fmt.Sprintf(`UPDATE %s SET
		title = :title, description = :description, type = :type, subject = :subject,
		instructor = :instructor, location = :location, tags = :tags, date = :date,
		start_time = :start_time, end_time = :end_time, status = :status, updated_at = :updated_at
		WHERE id = :id`, eventTable)
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.Event{}, calendar.ErrNotFound
	}
	return repo.GetEvent(ctx, ev.ID)
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE id IN (?)", eventTable), valid)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	return int(cnt), nil
}
