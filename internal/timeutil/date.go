// Package timeutil resolves the business date used to query the prediction
// service. The backend bounds "today's games" by Pacific Time, so the date is
// computed in that zone regardless of where the process runs.
package timeutil

import (
	"fmt"
	"time"

	// Embed the tz database so containers without zoneinfo still resolve the zone.
	_ "time/tzdata"
)

const (
	// PacificZone is the zone the prediction backend uses for its day boundary.
	PacificZone = "America/Los_Angeles"

	// DateLayout is the date format expected by the game-predictions endpoint.
	DateLayout = "2006-01-02"
)

var pacific = MustLoad(PacificZone)

// MustLoad loads a tz database location and panics if it is unknown.
func MustLoad(zone string) *time.Location {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		panic(fmt.Sprintf("timeutil: loading zone %q: %v", zone, err))
	}
	return loc
}

// ResolveBusinessDate converts now to wall-clock time in zone and formats it
// with layout.
func ResolveBusinessDate(now time.Time, zone string, layout string) string {
	loc := pacific
	if zone != PacificZone {
		loc = MustLoad(zone)
	}
	return now.In(loc).Format(layout)
}

// Resolver produces business dates from an injectable clock.
type Resolver struct {
	zone string
	loc  *time.Location
	now  func() time.Time
}

// NewResolver creates a Resolver for the Pacific zone using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{zone: PacificZone, loc: pacific, now: time.Now}
}

// NewResolverWithClock creates a Resolver that reads time from now.
func NewResolverWithClock(now func() time.Time) *Resolver {
	return &Resolver{zone: PacificZone, loc: pacific, now: now}
}

// Today returns the current business date in DateLayout.
func (r *Resolver) Today() string {
	return ResolveBusinessDate(r.now(), r.zone, DateLayout)
}

// Heading returns the current business date as a page heading,
// e.g. "October 19th, 2026".
func (r *Resolver) Heading() string {
	return HeaderDate(r.now().In(r.loc))
}

// HeaderDate formats t as "Month Dth, YYYY" using t's own location.
func HeaderDate(t time.Time) string {
	day := t.Day()
	return fmt.Sprintf("%s %d%s, %d", t.Month(), day, ordinalSuffix(day), t.Year())
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
