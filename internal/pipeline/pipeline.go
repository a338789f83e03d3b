// Package pipeline drives lines from a source through parsing, filtering and
// rendering, strictly one line at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atikulmunna/catloom/internal/filter"
	"github.com/atikulmunna/catloom/internal/output"
	"github.com/atikulmunna/catloom/internal/parser"
)

// LineSource yields raw lines and io.EOF at the end of input.
type LineSource interface {
	Next() (string, error)
}

// Pipeline parses, filters and renders lines. Parse failures are reported on
// the diagnostic writer and skipped; read and write failures stop the run.
type Pipeline struct {
	parser   *parser.Parser
	filter   filter.Filter
	renderer output.Renderer
	diag     io.Writer
	stats    Stats
	current  string // line being processed, quoted in warnings
}

// New returns a Pipeline. Extra parser options (such as a fixed clock) are
// passed through to the parser.
func New(f filter.Filter, r output.Renderer, diag io.Writer, opts ...parser.Option) *Pipeline {
	p := &Pipeline{
		filter:   f,
		renderer: r,
		diag:     diag,
		stats:    newStats(),
	}
	opts = append(opts, parser.WithWarnings(p.missingTag))
	p.parser = parser.New(opts...)
	return p
}

// Stats returns the counters collected so far.
func (p *Pipeline) Stats() Stats { return p.stats.clone() }

// Run consumes src until end of input or until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, src LineSource) error {
	for ctx.Err() == nil {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line: %w", err)
		}
		if err := p.Process(line); err != nil {
			return err
		}
	}
	return nil
}

// Process handles one raw line. Blank lines are skipped.
func (p *Pipeline) Process(line string) error {
	p.stats.Lines++
	if line == "" {
		p.stats.Blank++
		return nil
	}

	p.current = line
	rec, err := p.parser.Parse(line)
	if err != nil {
		p.stats.ParseFailures++
		p.warn(err.Error())
		return nil
	}

	if entry, ok := rec.Entry(); ok {
		p.stats.Entries++
		p.stats.LevelCounts[entry.Level]++
		if !p.filter.Include(entry) {
			p.stats.Filtered++
			return nil
		}
	} else {
		p.stats.Headers++
	}

	if err := p.renderer.Render(rec); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (p *Pipeline) missingTag(reason string) {
	p.stats.MissingTags++
	p.warn(reason)
}

func (p *Pipeline) warn(reason string) {
	fmt.Fprintf(p.diag, "warning: %s; see next line\n%s\n", reason, p.current)
}
