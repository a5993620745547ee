package domain

import "time"

// DateLayout is the format of a show's creation date.
const DateLayout = "2006-01-02"

// RoutineSource tells where a show's routine list comes from.
type RoutineSource string

const (
	SourceBuiltin RoutineSource = "BUILTIN"
	SourceCustom  RoutineSource = "custom"
)

// Show is a named collection of routines with its own note log.
type Show struct {
	Name     string
	Source   RoutineSource
	Routines []Routine // only set for SourceCustom
	Created  string
}

// NewBuiltinShow returns a show that uses the built-in catalog.
func NewBuiltinShow(name string, now time.Time) Show {
	return Show{Name: name, Source: SourceBuiltin, Created: now.Format(DateLayout)}
}
