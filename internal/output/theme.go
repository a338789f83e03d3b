package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/catloom/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ANSI palette indices.
var (
	colorHeader     = lipgloss.Color("8")  // bright black
	colorDatetime   = lipgloss.Color("5")  // magenta
	colorPID        = lipgloss.Color("8")  // bright black
	colorTID        = lipgloss.Color("8")  // bright black
	colorTag        = lipgloss.Color("7")  // white
	colorMissingTag = lipgloss.Color("8")  // bright black
	colorBadgeText  = lipgloss.Color("15") // bright white
)

// levelColors is indexed by model.Level.
var levelColors = [...]lipgloss.Color{
	model.Silent:  lipgloss.Color("8"), // bright black
	model.Verbose: lipgloss.Color("6"), // cyan
	model.Debug:   lipgloss.Color("4"), // blue
	model.Info:    lipgloss.Color("2"), // green
	model.Warning: lipgloss.Color("3"), // yellow
	model.Error:   lipgloss.Color("1"), // red
	model.Fatal:   lipgloss.Color("9"), // bright red
}

// LevelColor returns the color that marks a level, both as the badge
// background and as the foreground of the entry's message.
func LevelColor(l model.Level) lipgloss.Color {
	if int(l) >= len(levelColors) {
		panic(fmt.Sprintf("output: no color for level %d", l))
	}
	return levelColors[l]
}

type palette struct {
	header     lipgloss.Style
	datetime   lipgloss.Style
	pid        lipgloss.Style
	tid        lipgloss.Style
	tag        lipgloss.Style
	missingTag lipgloss.Style
	badge      [len(levelColors)]lipgloss.Style
	message    [len(levelColors)]lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	// Message text is written as logged, tabs included.
	style := func() lipgloss.Style {
		return r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	}
	p := palette{
		header:     style().Foreground(colorHeader),
		datetime:   style().Foreground(colorDatetime),
		pid:        style().Foreground(colorPID),
		tid:        style().Foreground(colorTID),
		tag:        style().Foreground(colorTag),
		missingTag: style().Foreground(colorMissingTag).Italic(true),
	}
	for _, l := range model.Levels {
		p.badge[l] = style().
			Foreground(colorBadgeText).
			Background(LevelColor(l)).
			Bold(true)
		p.message[l] = style().Foreground(LevelColor(l))
	}
	return p
}

// ColorMode selects whether styling escapes are written.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
	}
}

// NewStyleRenderer returns a lipgloss renderer for w. In auto mode the color
// profile is detected from w; the other modes force full ANSI or plain text.
func NewStyleRenderer(w io.Writer, mode ColorMode) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
