package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/conorfennell/shownotes/internal/domain"
)

// entry is the persisted form of one show.
type entry struct {
	Routines       domain.RoutineSource `json:"routines"`
	CustomRoutines []routineTuple       `json:"custom_routines,omitempty"`
	Created        string               `json:"created"`
}

// routineTuple persists a routine as [seq, title, performers].
type routineTuple domain.Routine

func (r routineTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Seq, r.Title, r.Performers})
}

func (r *routineTuple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 || len(raw) > 3 {
		return fmt.Errorf("routine must have 2 or 3 fields, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Seq); err != nil {
		return fmt.Errorf("routine sequence: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Title); err != nil {
		return fmt.Errorf("routine title: %w", err)
	}
	r.Performers = ""
	if len(raw) == 3 {
		if err := json.Unmarshal(raw[2], &r.Performers); err != nil {
			return fmt.Errorf("routine performers: %w", err)
		}
	}
	return nil
}

// document is the whole registry. JSON object key order is the show order.
type document struct {
	names   []string
	entries map[string]entry
}

func newDocument() *document {
	return &document{entries: make(map[string]entry)}
}

func (d *document) has(name string) bool {
	_, ok := d.entries[name]
	return ok
}

func (d *document) put(name string, e entry) {
	if !d.has(name) {
		d.names = append(d.names, name)
	}
	d.entries[name] = e
}

func (d *document) remove(name string) {
	if !d.has(name) {
		return
	}
	delete(d.entries, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i:i], d.names[i+1:]...)
			break
		}
	}
}

func (d *document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("registry must be a JSON object")
	}

	d.names = nil
	d.entries = make(map[string]entry)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected registry key %v", tok)
		}
		var e entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("show %q: %w", name, err)
		}
		d.put(name, e)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (e entry) show(name string) domain.Show {
	s := domain.Show{Name: name, Source: e.Routines, Created: e.Created}
	if e.Routines == domain.SourceCustom {
		s.Routines = make([]domain.Routine, len(e.CustomRoutines))
		for i, r := range e.CustomRoutines {
			s.Routines[i] = domain.Routine(r)
		}
	} else {
		s.Source = domain.SourceBuiltin
	}
	return s
}

func entryFor(s domain.Show) entry {
	e := entry{Routines: s.Source, Created: s.Created}
	if s.Source == domain.SourceCustom {
		e.CustomRoutines = make([]routineTuple, len(s.Routines))
		for i, r := range s.Routines {
			e.CustomRoutines[i] = routineTuple(r)
		}
	}
	return e
}
