package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/pfrederiksen/poker-calendar/internal/convert"
	"github.com/pfrederiksen/poker-calendar/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatJSON     OutputFormat = "json"
	FormatMarkdown OutputFormat = "markdown"
)

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt time.Time
	Filter      string
	Rows        []*event.Event
	Dropped     map[event.Reason]int
}

// markdownStyle is the glamour style; tests switch it to "notty".
var markdownStyle = "auto"

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatMarkdown:
		return writeMarkdown(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the same document as GET /api/schedule
func writeJSON(w io.Writer, result *OutputResult) error {
	rows := result.Rows
	if rows == nil {
		rows = []*event.Event{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Rows []*event.Event `json:"rows"`
	}{rows})
}

// writeText outputs results as an aligned table
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Rows) == 0 {
		fmt.Fprintln(w, "No upcoming tournaments found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tLOCATION\tTOURNAMENT\tBUY-IN\tUSD")
	for _, evt := range result.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(evt.StartDate), orDash(evt.EndDate), orDash(evt.Location), evt.Tournament,
			convert.Display(evt.BuyIn, evt.Currency), convert.DisplayUSD(evt.USD))
		if verbose && evt.HandbookURL != "" {
			fmt.Fprintf(tw, "\t\t\t  %s\t\t\n", evt.HandbookURL)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d tournaments\n", len(result.Rows))
	if verbose {
		if result.Filter != "" {
			fmt.Fprintf(w, "Filter: %s\n", result.Filter)
		}
		for _, reason := range droppedReasons(result.Dropped) {
			fmt.Fprintf(w, "Dropped (%s): %d\n", reason, result.Dropped[event.Reason(reason)])
		}
	}
	return nil
}

const scheduleMarkdownTemplate = `# Poker Tournaments

_Generated {{ .GeneratedAt.Format "2006-01-02 15:04 MST" }}{{ if .Filter }} · {{ .Filter }}{{ end }}_

{{ if .Rows -}}
| Start | End | Location | Tournament | Buy-in | USD |
|---|---|---|---|---|---|
{{ range .Rows -}}
| {{ dash .StartDate }} | {{ dash .EndDate }} | {{ cell (dash .Location) }} | {{ tournament . }} | {{ cell (buyIn .) }} | {{ usd .USD }} |
{{ end -}}
{{ else -}}
No upcoming tournaments found.
{{ end }}`

var scheduleMarkdown = template.Must(template.New("schedule").Funcs(template.FuncMap{
	"dash":  orDash,
	"cell":  markdownCell,
	"usd":   convert.DisplayUSD,
	"buyIn": func(e *event.Event) string { return convert.Display(e.BuyIn, e.Currency) },
	"tournament": func(e *event.Event) string {
		if e.HandbookURL == "" {
			return markdownCell(e.Tournament)
		}
		return fmt.Sprintf("[%s](%s)", markdownCell(e.Tournament), e.HandbookURL)
	},
}).Parse(scheduleMarkdownTemplate))

// writeMarkdown renders the schedule as markdown for the terminal
func writeMarkdown(w io.Writer, result *OutputResult) error {
	data := *result
	if data.Filter == "No active filters" {
		data.Filter = ""
	}

	var md strings.Builder
	if err := scheduleMarkdown.Execute(&md, data); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(markdownStyle),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md.String())
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return convert.NoAmount
	}
	return s
}

func markdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func droppedReasons(dropped map[event.Reason]int) []string {
	reasons := make([]string, 0, len(dropped))
	for r := range dropped {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	return reasons
}
