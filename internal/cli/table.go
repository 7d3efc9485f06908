package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"vatfiler/internal/oauth"
	"vatfiler/internal/receipts"
	vstrings "vatfiler/pkg/strings"
)

// receiptValueWidth truncates long values in the receipts table.
const receiptValueWidth = 40

// Leading receipt columns; the rest follow alphabetically.
var receiptLeadColumns = []string{"vrn", "periodKey", "processingDate", "formBundleNumber", "chargeRefNumber"}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// RenderReceipts prints receipts as a table. Columns are the union of
// fields across receipts.
func RenderReceipts(w io.Writer, list []receipts.Receipt) {
	if len(list) == 0 {
		fmt.Fprintf(w, "%s\n", text.FgYellow.Sprint("No receipts recorded"))
		return
	}

	columns := receiptColumns(list)
	t := newTable(w)

	header := make(table.Row, 0, len(columns))
	for _, c := range columns {
		header = append(header, text.FgHiCyan.Sprint(strings.ToUpper(c)))
	}
	t.AppendHeader(header)

	for _, r := range list {
		row := make(table.Row, 0, len(columns))
		for _, c := range columns {
			row = append(row, cellValue(r, c))
		}
		t.AppendRow(row)
	}
	t.Render()

	fmt.Fprintf(w, "\n%s %s\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(len(list)))
}

// RenderStatus prints the connection state.
func RenderStatus(w io.Writer, status oauth.Status, tokenFile string, now time.Time) {
	t := newTable(w)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("KEY"), text.FgHiCyan.Sprint("VALUE")})

	switch {
	case !status.Connected:
		t.AppendRow(table.Row{"Status", text.FgYellow.Sprint("Not connected")})
	case status.Expired:
		t.AppendRow(table.Row{"Status", text.FgYellow.Sprint("Connected (access token expired, will refresh)")})
	default:
		t.AppendRow(table.Row{"Status", text.FgGreen.Sprint("Connected")})
	}
	if status.ExpiresAt != nil {
		t.AppendRow(table.Row{"Expires", FormatExpiry(*status.ExpiresAt, now)})
	}
	t.AppendRow(table.Row{"Token file", tokenFile})
	t.Render()
}

// FormatDuration renders d in the largest whole unit.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		return plural(int(d.Minutes()), "minute")
	}
	if d < 24*time.Hour {
		return plural(int(d.Hours()), "hour")
	}
	return plural(int(d.Hours()/24), "day")
}

// FormatExpiry formats a time as "in X" or "expired X ago".
func FormatExpiry(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining > 0 {
		return "in " + FormatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", FormatDuration(-remaining))
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func receiptColumns(list []receipts.Receipt) []string {
	seen := make(map[string]bool)
	for _, r := range list {
		for _, k := range r.Keys() {
			seen[k] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for _, c := range receiptLeadColumns {
		if seen[c] {
			columns = append(columns, c)
			delete(seen, c)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func cellValue(r receipts.Receipt, column string) string {
	raw, ok := r.Field(column)
	if !ok || string(raw) == "null" {
		return "-"
	}
	value := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		value = r.StringField(column)
	}
	return vstrings.Cell(value, receiptValueWidth)
}
