// Package export writes keyword listings as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/radar/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", eris.Errorf("export: unknown format %q (want csv or xlsx)", s)
}

// SheetName is the worksheet XLSX exports write to.
const SheetName = "keywords"

// Header lists the exported columns in order.
var Header = []string{
	"keyword", "bucket", "monthly_volume", "intent", "subtypes",
	"difficulty", "difficulty_source", "difficulty_confidence", "difficulty_anomaly",
	"strategic_score", "opportunity_score", "composite_score",
	"matched_app", "matched_url", "suggested_title", "suggested_links",
	"discovery_source", "model_version", "first_seen", "last_seen",
}

// numeric marks the Header positions written as numbers in XLSX.
var numeric = map[int]bool{2: true, 5: true, 9: true, 10: true, 11: true}

// Row flattens k into Header order. Lists are joined with "|".
func Row(k model.Keyword) []string {
	subtypes := make([]string, len(k.Subtypes))
	for i, s := range k.Subtypes {
		subtypes[i] = string(s)
	}
	return []string{
		k.Keyword,
		k.Bucket,
		strconv.Itoa(k.MonthlyVolume),
		string(k.Intent),
		strings.Join(subtypes, "|"),
		strconv.Itoa(k.Difficulty),
		string(k.DifficultySource),
		string(k.DifficultyConfidence),
		deref(k.DifficultyAnomaly),
		strconv.Itoa(k.StrategicScore),
		strconv.Itoa(k.OpportunityScore),
		strconv.Itoa(k.CompositeScore),
		deref(k.MatchedApp),
		deref(k.MatchedURL),
		deref(k.SuggestedTitle),
		strings.Join(k.SuggestedLinks, "|"),
		string(k.DiscoverySource),
		k.ModelVersion,
		formatTime(k.FirstSeen),
		formatTime(k.LastSeen),
	}
}

// Write encodes keywords to w in the given format.
func Write(w io.Writer, format Format, keywords []model.Keyword) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, keywords)
	case FormatXLSX:
		return WriteXLSX(w, keywords)
	}
	return eris.Errorf("export: unknown format %q", format)
}

// WriteCSV writes a header row followed by one row per keyword.
func WriteCSV(w io.Writer, keywords []model.Keyword) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, k := range keywords {
		if err := cw.Write(Row(k)); err != nil {
			return eris.Wrapf(err, "export: write csv row %q", k.Keyword)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes a single-sheet workbook. Volume, difficulty and score
// columns are numeric cells.
func WriteXLSX(w io.Writer, keywords []model.Keyword) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, k := range keywords {
		row := sheet.AddRow()
		for i, v := range Row(k) {
			cell := row.AddCell()
			if numeric[i] {
				n, _ := strconv.Atoi(v)
				cell.SetInt(n)
				continue
			}
			cell.SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
