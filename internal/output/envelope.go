package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/itchyny/gojq"
)

// Response is the success envelope for JSON output.
type Response struct {
	OK      bool           `json:"ok"`
	Data    any            `json:"data,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorResponse is the error envelope for JSON output.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
	Hint  string `json:"hint,omitempty"`
}

// Format specifies the output format.
type Format int

const (
	FormatAuto   Format = iota // Auto-detect: TTY → Styled, non-TTY → Plain
	FormatJSON                 // Envelope as indented JSON
	FormatStyled               // ANSI styled output (forced, even when piped)
	FormatPlain                // Unstyled text
)

// ParseFormat maps a --format value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "styled":
		return FormatStyled, nil
	case "plain", "text":
		return FormatPlain, nil
	}
	return FormatAuto, ErrUsageHint(fmt.Sprintf("Unknown format: %s", s), "Use auto, json, styled, or plain")
}

// Options controls output behavior.
type Options struct {
	Format Format
	Writer io.Writer
	// JQ is an optional gojq expression applied to the JSON envelope.
	JQ string
}

// Writer handles all output formatting.
type Writer struct {
	opts Options
}

// New creates a new output writer.
func New(opts Options) *Writer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &Writer{opts: opts}
}

// Out returns the underlying writer.
func (w *Writer) Out() io.Writer {
	return w.opts.Writer
}

// EffectiveFormat resolves FormatAuto against the writer. A jq expression
// always implies JSON.
func (w *Writer) EffectiveFormat() Format {
	if w.opts.JQ != "" {
		return FormatJSON
	}
	if w.opts.Format != FormatAuto {
		return w.opts.Format
	}
	if isTTY(w.opts.Writer) {
		return FormatStyled
	}
	return FormatPlain
}

// Report outputs a report. data is what the JSON envelope carries; sum is
// what the text renderers draw.
func (w *Writer) Report(data any, sum *Summary, opts ...ResponseOption) error {
	resp := &Response{OK: sum.OK, Data: data, Summary: sum.Totals}
	for _, opt := range opts {
		opt(resp)
	}

	switch w.EffectiveFormat() {
	case FormatJSON:
		return w.writeJSON(resp)
	case FormatStyled:
		return NewRenderer(w.opts.Writer, true).RenderSummary(w.opts.Writer, sum)
	default:
		return NewRenderer(w.opts.Writer, false).RenderSummary(w.opts.Writer, sum)
	}
}

// Err outputs an error response.
func (w *Writer) Err(err error) error {
	e := AsError(err)
	resp := &ErrorResponse{
		OK:    false,
		Error: e.Message,
		Code:  e.Code,
		Hint:  e.Hint,
	}
	switch w.EffectiveFormat() {
	case FormatJSON:
		return w.writeJSON(resp)
	case FormatStyled:
		return NewRenderer(w.opts.Writer, true).RenderError(w.opts.Writer, resp)
	default:
		return NewRenderer(w.opts.Writer, false).RenderError(w.opts.Writer, resp)
	}
}

// isTTY checks if the writer is a terminal.
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(f.Fd())
	}
	return false
}

func (w *Writer) writeJSON(v any) error {
	if w.opts.JQ != "" {
		return w.writeJQ(v)
	}
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJQ runs the jq expression over the envelope. String results are
// printed raw, everything else as compact JSON.
func (w *Writer) writeJQ(v any) error {
	query, err := gojq.Parse(w.opts.JQ)
	if err != nil {
		return &Error{Code: CodeJQ, Message: "Invalid jq expression", Hint: err.Error(), Cause: err}
	}

	// gojq only understands plain JSON values
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(b, &input); err != nil {
		return err
	}

	iter := query.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := result.(error); ok {
			return &Error{Code: CodeJQ, Message: "jq evaluation failed", Hint: err.Error(), Cause: err}
		}
		if s, ok := result.(string); ok {
			fmt.Fprintln(w.opts.Writer, s)
			continue
		}
		line, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(w.opts.Writer, string(line))
	}
}

// ResponseOption modifies a Response.
type ResponseOption func(*Response)

// WithMeta adds metadata to the response.
func WithMeta(key string, value any) ResponseOption {
	return func(r *Response) {
		if r.Meta == nil {
			r.Meta = make(map[string]any)
		}
		r.Meta[key] = value
	}
}
