/*
	Project: Masomo Calendar - school calendar & agenda API
	Target: École secondaires (Universities later..)
*/
package masomo

/*
TODO: recurring events (RRULE) for weekly classes; ExportICS then emits one VEVENT per series
TODO: per-class calendars: filter events by the token's class once classes are exposed by the school API
TODO: import .ics files next to the xlsx import (`admin import -file x.ics`)

FE:
	- Month & Week views: GET /v1/calendar/month | /v1/calendar/week
	- Today widget: GET /v1/calendar/today (poll every minute)
	- Filters: search + type toggles -> ?search=&type=
*/
