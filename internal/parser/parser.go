package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atikulmunna/catloom/internal/model"
)

// HeaderPrefix starts every buffer header line logcat prints.
const HeaderPrefix = "--------- beginning of "

// MissingTagReason is reported through the warning hook when an entry has no
// ": " between tag and message.
const MissingTagReason = "missing ': ' to separate tag and message"

// EmptyTagReason is reported when ": " is present but nothing precedes it.
// The entry gets the missing tag sentinel and the text after the delimiter.
const EmptyTagReason = "empty tag before ': '"

// datetimeLayout matches the "MM-DD HH:MM:SS.mmm" token once the year is prepended.
const datetimeLayout = "2006-01-02 15:04:05.000"

// datetimeLen is the length of "MM-DD HH:MM:SS.mmm".
const datetimeLen = 18

// WarnFunc receives non-fatal diagnostics raised while parsing a line.
type WarnFunc func(reason string)

// Parser turns raw logcat lines into records. It keeps no state between lines,
// so one Parser may be reused for a whole stream.
type Parser struct {
	now  func() time.Time
	warn WarnFunc
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the clock whose year is given to the year-less timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithWarnings installs the hook that receives non-fatal diagnostics.
func WithWarnings(fn WarnFunc) Option {
	return func(p *Parser) { p.warn = fn }
}

// New returns a Parser using the system clock and discarding warnings.
func New(opts ...Option) *Parser {
	p := &Parser{
		now:  time.Now,
		warn: func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SyntaxError describes where a line stopped matching both grammars.
type SyntaxError struct {
	Offset   int    // byte offset of the first offending character
	Expected string // what the grammar wanted at Offset
	Found    string // offending text, empty at end of line
}

func (e *SyntaxError) Error() string {
	found := "end of input"
	if e.Found != "" {
		found = strconv.Quote(e.Found)
	}
	return fmt.Sprintf("failed to parse log line: found %s at %d, expected %s", found, e.Offset, e.Expected)
}

// Parse classifies a single line. Header syntax is tried first, then the
// entry syntax. When neither matches, the error from the grammar that got
// further into the line is returned.
func (p *Parser) Parse(line string) (model.Record, error) {
	line = trimLineEnd(line)

	rec, headerErr := parseHeader(line)
	if headerErr == nil {
		return rec, nil
	}

	rec, entryErr := p.parseEntry(line)
	if entryErr == nil {
		return rec, nil
	}

	if headerErr.Offset > entryErr.Offset {
		return model.Record{}, headerErr
	}
	return model.Record{}, entryErr
}

func trimLineEnd(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func parseHeader(line string) (model.Record, *SyntaxError) {
	sc := &scanner{s: line}
	for i := 0; i < len(HeaderPrefix); i++ {
		if sc.pos >= len(line) || line[sc.pos] != HeaderPrefix[i] {
			return model.Record{}, sc.fail(strconv.Quote(HeaderPrefix))
		}
		sc.pos++
	}

	start := sc.pos
	for sc.pos < len(line) && isIdentByte(line[sc.pos]) {
		sc.pos++
	}
	if sc.pos == start {
		return model.Record{}, sc.fail("buffer name")
	}
	if sc.pos != len(line) {
		return model.Record{}, sc.fail("end of line")
	}
	return model.NewHeader(line[start:]), nil
}

// 10-01 12:10:45.848  1515  1971 I MiuiNetworkPolicy: removeUidState uid = 10147
func (p *Parser) parseEntry(line string) (model.Record, *SyntaxError) {
	sc := &scanner{s: line}

	datetime, err := p.datetime(sc)
	if err != nil {
		return model.Record{}, err
	}
	sc.spaces()

	pid, err := sc.uint32("pid")
	if err != nil {
		return model.Record{}, err
	}
	if sc.spaces() == 0 {
		return model.Record{}, sc.fail("whitespace after pid")
	}

	tid, err := sc.uint32("tid")
	if err != nil {
		return model.Record{}, err
	}
	if sc.spaces() == 0 {
		return model.Record{}, sc.fail("whitespace after tid")
	}

	level, err := sc.level()
	if err != nil {
		return model.Record{}, err
	}
	if !sc.done() && sc.spaces() == 0 {
		return model.Record{}, sc.fail("whitespace after log level")
	}

	rest := line[sc.pos:]
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		sc.pos += i
		return model.Record{}, sc.fail("end of line")
	}

	tag, message := p.splitTag(rest)
	return model.NewEntry(model.LogEntry{
		Datetime: datetime,
		PID:      pid,
		TID:      tid,
		Level:    level,
		Tag:      tag,
		Message:  message,
	}), nil
}

// datetime reads "MM-DD HH:MM:SS.mmm " and resolves it in the current year.
func (p *Parser) datetime(sc *scanner) (time.Time, *SyntaxError) {
	start := sc.pos
	steps := []struct {
		digits int
		sep    byte
	}{
		{2, '-'}, // month
		{2, ' '}, // day
		{2, ':'}, // hour
		{2, ':'}, // minute
		{2, '.'}, // second
		{3, ' '}, // millisecond
	}
	for _, step := range steps {
		if err := sc.digits(step.digits); err != nil {
			return time.Time{}, err
		}
		if err := sc.expect(step.sep); err != nil {
			return time.Time{}, err
		}
	}

	text := sc.s[start : start+datetimeLen]
	ts, err := time.Parse(datetimeLayout, fmt.Sprintf("%04d-%s", p.now().UTC().Year(), text))
	if err != nil {
		return time.Time{}, &SyntaxError{Offset: start, Expected: "a valid date and time", Found: text}
	}
	return ts.UTC(), nil
}

func (p *Parser) splitTag(rest string) (string, string) {
	if before, after, found := strings.Cut(rest, ": "); found {
		if tag := strings.TrimSpace(before); tag != "" {
			return tag, strings.TrimSpace(after)
		}
		p.warn(EmptyTagReason)
		return model.MissingTag, strings.TrimSpace(after)
	}
	p.warn(MissingTagReason)
	return model.MissingTag, strings.TrimSpace(rest)
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) done() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) fail(expected string) *SyntaxError {
	e := &SyntaxError{Offset: sc.pos, Expected: expected}
	if !sc.done() {
		r, _ := utf8.DecodeRuneInString(sc.s[sc.pos:])
		e.Found = string(r)
	}
	return e
}

func (sc *scanner) digits(n int) *SyntaxError {
	for i := 0; i < n; i++ {
		if sc.done() || !isDigit(sc.s[sc.pos]) {
			return sc.fail("digit")
		}
		sc.pos++
	}
	return nil
}

func (sc *scanner) expect(c byte) *SyntaxError {
	if sc.done() || sc.s[sc.pos] != c {
		return sc.fail(strconv.QuoteRune(rune(c)))
	}
	sc.pos++
	return nil
}

// spaces consumes blanks and tabs, returning how many were skipped.
func (sc *scanner) spaces() int {
	start := sc.pos
	for !sc.done() && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
	return sc.pos - start
}

func (sc *scanner) uint32(field string) (uint32, *SyntaxError) {
	start := sc.pos
	for !sc.done() && isDigit(sc.s[sc.pos]) {
		sc.pos++
	}
	if sc.pos == start {
		return 0, sc.fail(field)
	}
	v, err := strconv.ParseUint(sc.s[start:sc.pos], 10, 32)
	if err != nil {
		return 0, &SyntaxError{Offset: start, Expected: field + " that fits in 32 bits", Found: sc.s[start:sc.pos]}
	}
	return uint32(v), nil
}

func (sc *scanner) level() (model.Level, *SyntaxError) {
	if sc.done() {
		return 0, sc.fail("log level")
	}
	l, ok := model.LevelFromLetter(sc.s[sc.pos])
	if !ok {
		return 0, sc.fail("one of S, V, D, I, W, E, F")
	}
	sc.pos++
	return l, nil
}
