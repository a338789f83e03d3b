package model

import (
	"fmt"
	"strings"
	"time"
)

// MissingTag is the tag given to entries whose text has no ": " separating
// the tag from the message.
const MissingTag = "MISSING_TAG"

// Level is a logcat priority. Levels are ordered from Silent to Fatal.
type Level uint8

const (
	Silent Level = iota
	Verbose
	Debug
	Info
	Warning
	Error
	Fatal
)

// Levels lists every level in ascending order.
var Levels = []Level{Silent, Verbose, Debug, Info, Warning, Error, Fatal}

var levelLetters = [...]byte{'S', 'V', 'D', 'I', 'W', 'E', 'F'}

var levelNames = [...]string{"silent", "verbose", "debug", "info", "warning", "error", "fatal"}

// String returns the single-letter form used by logcat.
func (l Level) String() string {
	if int(l) >= len(levelLetters) {
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
	return string(levelLetters[l])
}

// Name returns the lower-case full name of the level.
func (l Level) Name() string {
	if int(l) >= len(levelNames) {
		return l.String()
	}
	return levelNames[l]
}

// LevelFromLetter maps a logcat priority letter to its Level.
func LevelFromLetter(c byte) (Level, bool) {
	for i, letter := range levelLetters {
		if letter == c {
			return Level(i), true
		}
	}
	return 0, false
}

// ParseLevel accepts either a priority letter or a full level name, in any case.
func ParseLevel(s string) (Level, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) == 1 {
		if l, ok := LevelFromLetter(strings.ToUpper(v)[0]); ok {
			return l, nil
		}
	}
	switch v {
	case "warn":
		return Warning, nil
	case "err":
		return Error, nil
	}
	for i, name := range levelNames {
		if name == v {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q (want one of S, V, D, I, W, E, F)", s)
}

// MarshalText encodes the level as its priority letter.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts anything ParseLevel does.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// LogEntry is one structured logcat line. It is never modified after parsing.
type LogEntry struct {
	Datetime time.Time `json:"datetime"`
	PID      uint32    `json:"pid"`
	TID      uint32    `json:"tid"`
	Level    Level     `json:"level"`
	Tag      string    `json:"tag"`
	Message  string    `json:"message"`
}

// HasMissingTag reports whether the entry carries the MissingTag sentinel.
func (e LogEntry) HasMissingTag() bool {
	return e.Tag == MissingTag
}

// Kind distinguishes the two variants of Record.
type Kind uint8

const (
	KindHeader Kind = iota + 1
	KindEntry
)

// Record is a parsed line: either a buffer header or a log entry.
// Use NewHeader or NewEntry to construct one.
type Record struct {
	kind   Kind
	header string
	entry  LogEntry
}

// NewHeader returns a header record for the named buffer ("main", "system", ...).
func NewHeader(name string) Record {
	return Record{kind: KindHeader, header: name}
}

// NewEntry wraps a LogEntry in a Record.
func NewEntry(e LogEntry) Record {
	return Record{kind: KindEntry, entry: e}
}

// Kind returns which variant the record holds.
func (r Record) Kind() Kind { return r.kind }

// Header returns the buffer name when the record is a header.
func (r Record) Header() (string, bool) {
	return r.header, r.kind == KindHeader
}

// Entry returns the log entry when the record is an entry.
func (r Record) Entry() (LogEntry, bool) {
	return r.entry, r.kind == KindEntry
}
