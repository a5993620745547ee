package catalog

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/shownotes/internal/domain"
)

const (
	breakWord      = "BREAK"
	breakSeparator = "---"
	titleSeparator = "|"
	dashSeparator  = "-"
)

// ParseFile reads a routine list from the given path.
func ParseFile(path string) ([]domain.Routine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// ParseText parses a routine list held in memory.
func ParseText(text string) ([]domain.Routine, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads one routine per line from r.
//
// A line reading BREAK (any case) or --- becomes a break entry. Any other line is
// split on its first "|", or failing that its first "-", into title and performers.
// Routines are numbered from 1 in the order they appear; breaks do not consume a
// number. Blank lines are skipped.
func Parse(r io.Reader) ([]domain.Routine, error) {
	scanner := bufio.NewScanner(r)
	var routines []domain.Routine
	next := 1

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.EqualFold(line, breakWord) || line == breakSeparator {
			routines = append(routines, domain.Break())
			continue
		}

		title, performers := splitLine(line)
		routines = append(routines, domain.Routine{
			Seq:        next,
			Title:      title,
			Performers: performers,
		})
		next++
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return routines, nil
}

func splitLine(line string) (title, performers string) {
	sep := titleSeparator
	if !strings.Contains(line, sep) {
		sep = dashSeparator
	}
	left, right, found := strings.Cut(line, sep)
	if !found {
		return line, ""
	}
	return strings.TrimSpace(left), strings.TrimSpace(right)
}
