package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/conorfennell/shownotes/internal/domain"
)

//go:embed builtin.yaml
var builtinYAML []byte

type entry struct {
	Seq        int    `yaml:"seq"`
	Title      string `yaml:"title"`
	Performers string `yaml:"performers"`
}

type document struct {
	Routines []entry `yaml:"routines"`
}

var (
	builtinOnce     sync.Once
	builtinRoutines []domain.Routine
	builtinErr      error
)

// Builtin returns the built-in running order. The embedded data is decoded once;
// callers get their own copy.
func Builtin() []domain.Routine {
	builtinOnce.Do(func() {
		builtinRoutines, builtinErr = Decode(builtinYAML)
	})
	if builtinErr != nil {
		panic(fmt.Sprintf("catalog: embedded builtin.yaml is invalid: %v", builtinErr))
	}
	return append([]domain.Routine(nil), builtinRoutines...)
}

// Decode reads a YAML routine list of the form used by builtin.yaml.
func Decode(data []byte) ([]domain.Routine, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode routine list: %w", err)
	}
	routines := make([]domain.Routine, 0, len(doc.Routines))
	for _, e := range doc.Routines {
		if e.Seq < 0 {
			return nil, fmt.Errorf("routine %q has negative sequence number %d", e.Title, e.Seq)
		}
		if e.Seq == 0 {
			routines = append(routines, domain.Break())
			continue
		}
		routines = append(routines, domain.Routine{Seq: e.Seq, Title: e.Title, Performers: e.Performers})
	}
	return routines, nil
}

// Resolve returns the routine list for a show.
func Resolve(show domain.Show) []domain.Routine {
	if show.Source == domain.SourceCustom {
		return append([]domain.Routine(nil), show.Routines...)
	}
	return Builtin()
}

// Find returns the routine with the given key.
func Find(routines []domain.Routine, key string) (domain.Routine, bool) {
	for _, r := range routines {
		if !r.IsBreak() && r.Key() == key {
			return r, true
		}
	}
	return domain.Routine{}, false
}
