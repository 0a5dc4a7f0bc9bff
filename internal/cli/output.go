package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Table renders rows as aligned columns with a dashed header separator.
type Table struct {
	headers []string
	rows    [][]string
	writer  io.Writer
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers, writer: os.Stdout}
}

func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

func (t *Table) Render() {
	w := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	writeTabbedLine(w, t.headers)

	dashes := make([]string, len(t.headers))
	for i, h := range t.headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	writeTabbedLine(w, dashes)

	for _, row := range t.rows {
		writeTabbedLine(w, row)
	}
}

func writeTabbedLine(w io.Writer, cols []string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

// printOutput serializes data per the --output flag. Table rendering is the
// caller's job; this handles the structured formats.
func printOutput(data interface{}) error {
	switch getOutputFormat() {
	case "yaml":
		return printYAML(data)
	default:
		return printJSON(data)
	}
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printYAML(data interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// formatRank marks elevated accounts so they stand out in listings.
func formatRank(rank string) string {
	switch strings.ToLower(rank) {
	case "admin":
		return "[A] admin"
	case "premium":
		return "[P] premium"
	default:
		return rank
	}
}
