// Package server exposes the schedule over HTTP.
//
// Routes:
//
//	GET /api/schedule    {"rows": [...]}, filtered by ?location, ?q and ?when
//	GET /api/locations   {"locations": [...]}
//	GET /schedule.ics    iCalendar feed, same filters as /api/schedule
//	GET /api/rates       age and size of the cached rate table
//	GET /healthz         liveness
//	GET /metrics         Prometheus metrics
//
// Every request runs the pipeline afresh; a failure anywhere yields 500 with
// {"error": "..."}.
package server
