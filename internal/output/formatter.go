package output

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/atikulmunna/catloom/internal/model"
	"github.com/atikulmunna/catloom/internal/parser"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// DefaultMaxTagWidth caps the tag column, in terminal cells.
const DefaultMaxTagWidth = 24

const datetimeLayout = "01-02 15:04:05.000"

var (
	stackFrameRe = regexp.MustCompile(`^\s*(?:at|\.\.\.) `)
	causeRe      = regexp.MustCompile(`^\s*Caused by: `)

	// Continuation indents approximate where the message column starts.
	stackFrameIndent = strings.Repeat(" ", 41)
	causeIndent      = strings.Repeat(" ", 35)
)

// Line is a rendered record made of styled segments.
type Line []string

// String joins the segments with single spaces.
func (l Line) String() string {
	return strings.Join(l, " ")
}

// Formatter renders records into styled lines.
//
// The tag column grows to the widest tag seen so far, up to a maximum, and
// never shrinks. Entries printed before a wider tag shows up keep the
// narrower column. A Formatter must be used by one goroutine at a time.
type Formatter struct {
	styles      palette
	tagWidth    int
	maxTagWidth int
}

// NewFormatter returns a Formatter styling through r. A maxTagWidth below
// one falls back to DefaultMaxTagWidth.
func NewFormatter(r *lipgloss.Renderer, maxTagWidth int) *Formatter {
	if maxTagWidth < 1 {
		maxTagWidth = DefaultMaxTagWidth
	}
	return &Formatter{
		styles:      newPalette(r),
		maxTagWidth: maxTagWidth,
	}
}

// TagWidth returns the current width of the tag column.
func (f *Formatter) TagWidth() int { return f.tagWidth }

// Format renders one record.
func (f *Formatter) Format(rec model.Record) Line {
	if name, ok := rec.Header(); ok {
		return Line{f.styles.header.Render(parser.HeaderPrefix + name)}
	}
	entry, _ := rec.Entry()
	return f.formatEntry(entry)
}

func (f *Formatter) formatEntry(e model.LogEntry) Line {
	switch {
	case stackFrameRe.MatchString(e.Message):
		style := f.styles.message[e.Level].Faint(true)
		return Line{style.Render(continuation(stackFrameIndent, e))}
	case causeRe.MatchString(e.Message):
		return Line{f.styles.message[e.Level].Render(continuation(causeIndent, e))}
	default:
		return Line{
			f.styles.datetime.Render(e.Datetime.Format(datetimeLayout)),
			f.styles.pid.Render(fmt.Sprintf("%5d", e.PID)),
			f.styles.tid.Render(fmt.Sprintf("%5d", e.TID)),
			f.styles.badge[e.Level].Render(" " + e.Level.String() + " "),
			f.formatTag(e.Tag),
			f.styles.message[e.Level].Render(e.Message),
		}
	}
}

// continuation lays out a stack trace line without the entry fields.
func continuation(indent string, e model.LogEntry) string {
	pad := strings.Repeat(" ", runewidth.StringWidth(e.Tag))
	return indent + pad + strings.TrimLeftFunc(e.Message, unicode.IsSpace)
}

func (f *Formatter) formatTag(tag string) string {
	if w := runewidth.StringWidth(tag); w > f.tagWidth {
		f.tagWidth = min(w, f.maxTagWidth)
	}

	padded := center(tag, f.tagWidth)
	if tag == model.MissingTag {
		return f.styles.missingTag.Render(padded)
	}
	return f.styles.tag.Render(padded)
}

func center(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
