package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Summary is the text view of a finished run.
type Summary struct {
	Title    string
	Target   string
	Rows     []Row
	Totals   string
	Sections []Section
	Headline []string
	OK       bool
	// Partial marks the headline message as a warning rather than a success.
	Partial bool
}

// Row is one check in the summary table.
type Row struct {
	Name     string
	Passed   bool
	Critical bool
	Message  string
}

// Section is a titled block of lines printed after the table.
type Section struct {
	Title string
	Lines []string
}

// Palette colors used when styling is enabled.
const (
	colorPrimary = "#5fafff"
	colorMuted   = "#8a8a8a"
	colorError   = "#ff5f5f"
	colorWarning = "#ffaf00"
	colorSuccess = "#5fd75f"
)

// Renderer handles styled terminal output.
type Renderer struct {
	width  int
	styled bool

	Title   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
}

// NewRenderer creates a renderer for w. Styling is enabled when writing to a
// TTY, or when forceStyled is true, unless NO_COLOR is set.
func NewRenderer(w io.Writer, forceStyled bool) *Renderer {
	width, tty := terminalInfo(w)
	styled := (tty || forceStyled) && os.Getenv("NO_COLOR") == ""

	r := &Renderer{width: width, styled: styled}
	if !styled {
		plain := lipgloss.NewStyle()
		r.Title, r.Muted, r.Error, r.Hint = plain, plain, plain, plain
		r.Warning, r.Success, r.Header, r.Cell = plain, plain, plain, plain
		return r
	}

	lr := lipgloss.NewRenderer(w)
	if !tty {
		// Forced styling on a pipe: lipgloss would otherwise detect Ascii.
		lr.SetColorProfile(termenv.ANSI256)
	}
	r.Title = lr.NewStyle().Foreground(lipgloss.Color(colorPrimary)).Bold(true)
	r.Muted = lr.NewStyle().Foreground(lipgloss.Color(colorMuted))
	r.Error = lr.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true)
	r.Hint = lr.NewStyle().Foreground(lipgloss.Color(colorMuted)).Italic(true)
	r.Warning = lr.NewStyle().Foreground(lipgloss.Color(colorWarning))
	r.Success = lr.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	r.Header = lr.NewStyle().Bold(true).Padding(0, 1)
	r.Cell = lr.NewStyle().Padding(0, 1)
	return r
}

// terminalInfo returns the terminal width and whether the writer is a TTY.
func terminalInfo(w io.Writer) (width int, isTTY bool) {
	width = 80 // default

	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(f.Fd()); err == nil && tw >= 40 {
			width = tw
		}
		isTTY = term.IsTerminal(f.Fd())
	}

	return width, isTTY
}

// DisplayName turns a check key such as "server_health" into "Server Health".
func DisplayName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// RenderSummary renders a run summary to the writer.
func (r *Renderer) RenderSummary(w io.Writer, sum *Summary) error {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(r.Title.Render(sum.Title))
	b.WriteString("\n")
	if sum.Target != "" {
		b.WriteString(r.Muted.Render("Target: " + sum.Target))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case len(sum.Rows) == 0:
	case r.styled:
		r.renderTable(&b, sum.Rows)
	default:
		r.renderLines(&b, sum.Rows)
	}

	if sum.Totals != "" {
		b.WriteString("\n")
		b.WriteString(r.Title.Render(sum.Totals))
		b.WriteString("\n")
	}

	for _, s := range sum.Sections {
		b.WriteString("\n")
		if s.Title != "" {
			b.WriteString(r.Header.UnsetPadding().Render(s.Title))
			b.WriteString("\n")
		}
		for _, line := range s.Lines {
			b.WriteString("   ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(sum.Headline) > 0 {
		b.WriteString("\n")
		for i, line := range sum.Headline {
			style := r.Success
			switch {
			case !sum.OK:
				style = r.Error
			case sum.Partial && i > 0:
				style = r.Warning
			}
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) renderLines(b *strings.Builder, rows []Row) {
	for _, row := range rows {
		status := "PASS"
		if !row.Passed {
			status = "FAIL"
		}
		marker := " "
		if row.Critical {
			marker = "*"
		}
		fmt.Fprintf(b, "%s %s %s", status, marker, row.Name)
		if row.Message != "" {
			fmt.Fprintf(b, " - %s", row.Message)
		}
		b.WriteString("\n")
	}
}

func (r *Renderer) renderTable(b *strings.Builder, rows []Row) {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		result := r.Success.Render("✓ PASS")
		if !row.Passed {
			result = r.Error.Render("✗ FAIL")
		}
		name := DisplayName(row.Name)
		if row.Critical {
			name += " *"
		}
		cells = append(cells, []string{result, name, row.Message})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.Muted).
		Width(r.width).
		Headers("RESULT", "CHECK", "DETAIL").
		Rows(cells...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Header
			}
			return r.Cell
		})

	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(r.Hint.Render("* critical check"))
	b.WriteString("\n")
}

// RenderError renders an error response to the writer.
func (r *Renderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder

	b.WriteString(r.Error.Render("Error: " + resp.Error))
	b.WriteString("\n")
	if resp.Hint != "" {
		b.WriteString(r.Hint.Render("↳ " + resp.Hint))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
