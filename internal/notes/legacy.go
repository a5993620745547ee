package notes

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/noteid"
)

// Legacy describes the single notes document written before shows existed.
type Legacy struct {
	ShowName string // the one show the document belongs to
	Path     string
}

func (l Legacy) enabled() bool {
	return l.ShowName != "" && l.Path != ""
}

// read returns the legacy notes, or an empty mapping when the file is absent.
func (l Legacy) read() (domain.Buckets, error) {
	data, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		return domain.Buckets{}, nil
	}
	if err != nil {
		return domain.Buckets{}, fmt.Errorf("failed to read legacy notes %s: %w", l.Path, err)
	}
	b, err := decodeBuckets(data)
	if err != nil {
		return domain.Buckets{}, fmt.Errorf("failed to decode legacy notes %s: %w", l.Path, err)
	}
	return b, nil
}

// decodeBuckets parses a persisted notes document. Notes without an id get a
// content-derived one.
func decodeBuckets(data []byte) (domain.Buckets, error) {
	b := domain.Buckets{}
	if len(data) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Buckets{}, err
	}
	if b == nil {
		b = domain.Buckets{}
	}
	for key, notes := range b {
		if len(notes) == 0 {
			delete(b, key)
		}
	}
	noteid.Fill(b)
	return b, nil
}

func encodeBuckets(b domain.Buckets) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}
