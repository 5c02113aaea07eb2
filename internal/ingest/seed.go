package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/radar/internal/model"
)

// Seed is an operator-supplied starting keyword.
type Seed struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Bucket  string `yaml:"bucket" json:"bucket"`
	Volume  int    `yaml:"volume" json:"volume"`
}

// seedEntry accepts either a bare keyword or a {keyword, volume} mapping.
type seedEntry struct {
	Keyword string `yaml:"keyword"`
	Volume  int    `yaml:"volume"`
}

func (e *seedEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Keyword = node.Value
		return nil
	}
	type plain seedEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = seedEntry(p)
	return nil
}

// ParseSeeds decodes a seed document mapping bucket to keywords:
//
//	weather:
//	  - austin weather radar
//	  - keyword: austin pollen count
//	    volume: 5400
//
// Buckets are returned in name order and keywords in file order. Blank
// keywords are dropped.
func ParseSeeds(data []byte) ([]Seed, error) {
	var doc map[string][]seedEntry
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse seeds")
	}

	buckets := make([]string, 0, len(doc))
	for b := range doc {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)

	var seeds []Seed
	for _, b := range buckets {
		for _, e := range doc[b] {
			kw := model.NormalizeKeyword(e.Keyword)
			if kw == "" {
				continue
			}
			if e.Volume < 0 {
				return nil, eris.Errorf("ingest: seed %q has negative volume %d", kw, e.Volume)
			}
			seeds = append(seeds, Seed{Keyword: kw, Bucket: b, Volume: e.Volume})
		}
	}
	return seeds, nil
}

// LoadSeeds reads a seed file. The extension picks the format: .csv and
// .xlsx hold bucket,keyword[,volume] rows; anything else is YAML.
func LoadSeeds(path string) ([]Seed, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSVSeeds(path)
	case ".xlsx":
		return loadXLSXSeeds(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read seed file %s", path)
	}
	return ParseSeeds(data)
}

func loadCSVSeeds(path string) ([]Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read seed file %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: parse csv seeds")
	}
	return parseSeedRows(rows)
}

func loadXLSXSeeds(path string) ([]Seed, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open seed workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: seed workbook %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	return parseSeedRows(rows)
}

// parseSeedRows reads bucket,keyword[,volume] rows in file order. A first
// row starting with "bucket" is a header.
func parseSeedRows(rows [][]string) ([]Seed, error) {
	var seeds []Seed
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "bucket") {
			continue
		}
		if len(row) < 2 {
			continue
		}
		kw := model.NormalizeKeyword(row[1])
		if kw == "" {
			continue
		}
		s := Seed{Keyword: kw, Bucket: strings.TrimSpace(row[0])}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			v, err := strconv.Atoi(strings.TrimSpace(row[2]))
			if err != nil || v < 0 {
				return nil, eris.Errorf("ingest: row %d: invalid volume %q", i+1, row[2])
			}
			s.Volume = v
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}
