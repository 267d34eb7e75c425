package calendar

import "strings"

// TypeToggles enables event types. An empty set enables every type.
type TypeToggles map[EventType]bool

func ToggleTypes(types ...EventType) TypeToggles {
	if len(types) == 0 {
		return nil
	}
	toggles := make(TypeToggles, len(types))
	for _, t := range types {
		toggles[t] = true
	}
	return toggles
}

func (tt TypeToggles) Enabled(t EventType) bool {
	if len(tt) == 0 {
		return true
	}
	return tt[t]
}

type Criteria struct {
	Types  TypeToggles
	Search string
}

// Match reports whether ev's type is enabled and whether its title, description, subject,
// instructor or one of its tags contains the search query (case-insensitive).
func (c Criteria) Match(ev Event) bool {
	if !c.Types.Enabled(ev.Type) {
		return false
	}
	q := strings.ToLower(c.Search)
	if q == "" {
		return true
	}
	for _, field := range []string{ev.Title, ev.Description, ev.Subject, ev.Instructor} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range ev.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Filter returns the events matching c, in their original order.
func Filter(events []Event, c Criteria) []Event {
	filtered := make([]Event, 0, len(events))
	for _, ev := range events {
		if c.Match(ev) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}
