package pipeline

import (
	"fmt"
	"io"

	"github.com/atikulmunna/catloom/internal/model"
)

// Stats counts what happened to the lines of one run.
type Stats struct {
	Lines         int64
	Blank         int64
	Headers       int64
	Entries       int64
	Filtered      int64
	ParseFailures int64
	MissingTags   int64
	LevelCounts   map[model.Level]int64
}

func newStats() Stats {
	return Stats{LevelCounts: make(map[model.Level]int64)}
}

func (s Stats) clone() Stats {
	counts := make(map[model.Level]int64, len(s.LevelCounts))
	for k, v := range s.LevelCounts {
		counts[k] = v
	}
	s.LevelCounts = counts
	return s
}

// Shown is the number of records that were rendered.
func (s Stats) Shown() int64 {
	return s.Headers + s.Entries - s.Filtered
}

// WriteSummary prints a short human-readable report.
func (s Stats) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w, "lines: %d (blank %d, unparsed %d), headers: %d, entries: %d (filtered %d, missing tag %d), shown: %d\n",
		s.Lines, s.Blank, s.ParseFailures, s.Headers, s.Entries, s.Filtered, s.MissingTags, s.Shown())
	if err != nil {
		return err
	}
	for _, l := range model.Levels {
		if n := s.LevelCounts[l]; n > 0 {
			if _, err := fmt.Fprintf(w, "  %s %-8s %d\n", l, l.Name(), n); err != nil {
				return err
			}
		}
	}
	return nil
}
