package output

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/atikulmunna/catloom/internal/model"
)

// Renderer writes records to an output stream, one line per record.
// Every line is flushed before Render returns so live output stays responsive.
type Renderer interface {
	Render(rec model.Record) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

// TextRenderer prints records laid out by a Formatter.
type TextRenderer struct {
	w *bufio.Writer
	f *Formatter
}

// NewTextRenderer returns a Renderer that writes formatted lines to w.
func NewTextRenderer(w io.Writer, f *Formatter) *TextRenderer {
	return &TextRenderer{w: bufio.NewWriter(w), f: f}
}

func (r *TextRenderer) Render(rec model.Record) error {
	if _, err := r.w.WriteString(r.f.Format(rec).String()); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	return r.w.Flush()
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

type jsonRecord struct {
	Type     string       `json:"type"`
	Name     string       `json:"name,omitempty"`
	Datetime *time.Time   `json:"datetime,omitempty"`
	PID      *uint32      `json:"pid,omitempty"`
	TID      *uint32      `json:"tid,omitempty"`
	Level    *model.Level `json:"level,omitempty"`
	Tag      string       `json:"tag,omitempty"`
	Message  *string      `json:"message,omitempty"`
}

// JSONRenderer prints each record as a single JSON object per line.
type JSONRenderer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	bw := bufio.NewWriter(w)
	return &JSONRenderer{w: bw, enc: json.NewEncoder(bw)}
}

func (r *JSONRenderer) Render(rec model.Record) error {
	var out jsonRecord
	if name, ok := rec.Header(); ok {
		out = jsonRecord{Type: "header", Name: name}
	} else {
		e, _ := rec.Entry()
		out = jsonRecord{
			Type:     "entry",
			Datetime: &e.Datetime,
			PID:      &e.PID,
			TID:      &e.TID,
			Level:    &e.Level,
			Tag:      e.Tag,
			Message:  &e.Message,
		}
	}
	if err := r.enc.Encode(out); err != nil {
		return err
	}
	return r.w.Flush()
}
