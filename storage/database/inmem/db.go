package inmemdb

import (
	"sync"

	"github.com/trezcool/masomo-calendar/core/calendar"
)

type eventTable struct {
	mutex sync.RWMutex
	table map[string]*calendar.Event
}

// DB is an in-memory database, used in tests and when no postgres is configured.
type DB struct {
	event *eventTable
}

func NewDB() *DB {
	return &DB{
		event: &eventTable{table: make(map[string]*calendar.Event)},
	}
}
