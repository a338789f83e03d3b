// Package filter decides which log entries are shown.
//
// Filters form a small expression tree: And, Or and Not combine the leaf
// predicates Pid, Tid, MinLevel, Tag and Message. Build assembles the tree
// used by the command line, where different kinds of option are combined
// with And and repeated values of the same kind with Or.
package filter

import (
	"fmt"
	"regexp"

	"github.com/atikulmunna/catloom/internal/model"
)

// Filter reports whether an entry should be kept. Headers are never filtered.
type Filter interface {
	Include(entry model.LogEntry) bool
}

// And keeps an entry only if every child does. An empty And keeps everything.
type And []Filter

func (f And) Include(entry model.LogEntry) bool {
	for _, child := range f {
		if !child.Include(entry) {
			return false
		}
	}
	return true
}

// Or keeps an entry if any child does. An empty Or keeps nothing.
type Or []Filter

func (f Or) Include(entry model.LogEntry) bool {
	for _, child := range f {
		if child.Include(entry) {
			return true
		}
	}
	return false
}

// Not inverts its child.
type Not struct {
	Filter Filter
}

func (f Not) Include(entry model.LogEntry) bool {
	return !f.Filter.Include(entry)
}

// Pid keeps entries logged by one process.
type Pid uint32

func (f Pid) Include(entry model.LogEntry) bool { return entry.PID == uint32(f) }

// Tid keeps entries logged by one thread.
type Tid uint32

func (f Tid) Include(entry model.LogEntry) bool { return entry.TID == uint32(f) }

// MinLevel keeps entries at or above a level.
type MinLevel model.Level

func (f MinLevel) Include(entry model.LogEntry) bool { return entry.Level >= model.Level(f) }

// Tag keeps entries whose whole tag matches a pattern.
type Tag struct {
	re *regexp.Regexp
}

// NewTag compiles pattern anchored at both ends, so "Tag" matches only the
// tag "Tag" while "Tag.*" also matches "TagExtra".
func NewTag(pattern string) (*Tag, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, &PatternError{Kind: "tag", Pattern: pattern, Err: err}
	}
	return &Tag{re: re}, nil
}

func (f *Tag) Include(entry model.LogEntry) bool { return f.re.MatchString(entry.Tag) }

// Message keeps entries whose message contains a match for a pattern.
type Message struct {
	re *regexp.Regexp
}

// NewMessage compiles pattern as-is; it may match anywhere in the message.
func NewMessage(pattern string) (*Message, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Kind: "message", Pattern: pattern, Err: err}
	}
	return &Message{re: re}, nil
}

func (f *Message) Include(entry model.LogEntry) bool { return f.re.MatchString(entry.Message) }

// PatternError reports a tag or message pattern that does not compile.
type PatternError struct {
	Kind    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Options holds the optional filter criteria supplied by configuration.
// Nil pointers and empty slices mean the criterion was not given.
type Options struct {
	PID      *uint32
	TID      *uint32
	Level    *model.Level
	Tags     []string
	Messages []string
}

// Build returns an And over one clause per criterion present in opts.
// Several tag or message patterns become an Or within their clause.
func Build(opts Options) (Filter, error) {
	var clauses And

	if opts.PID != nil {
		clauses = append(clauses, Pid(*opts.PID))
	}
	if opts.TID != nil {
		clauses = append(clauses, Tid(*opts.TID))
	}
	if opts.Level != nil {
		clauses = append(clauses, MinLevel(*opts.Level))
	}

	if len(opts.Tags) > 0 {
		tags := make(Or, 0, len(opts.Tags))
		for _, pattern := range opts.Tags {
			f, err := NewTag(pattern)
			if err != nil {
				return nil, err
			}
			tags = append(tags, f)
		}
		clauses = append(clauses, tags)
	}

	if len(opts.Messages) > 0 {
		messages := make(Or, 0, len(opts.Messages))
		for _, pattern := range opts.Messages {
			f, err := NewMessage(pattern)
			if err != nil {
				return nil, err
			}
			messages = append(messages, f)
		}
		clauses = append(clauses, messages)
	}

	return clauses, nil
}
