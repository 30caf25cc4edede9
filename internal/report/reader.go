package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/veridict/internal/model"
)

// Input column names (case-insensitive). ID, Image_Path and Text_Content are
// required; Meta_* and GT_* are optional.
const (
	colID          = "id"
	colImagePath   = "image_path"
	colTextContent = "text_content"
	colMetaTime    = "meta_time"
	colMetaWeather = "meta_weather"
	colMetaLoc     = "meta_location"
	colMetaFact    = "meta_fact"
	colMetaObject  = "meta_object"
	colMetaTopic   = "meta_topic"
	colGTFinal     = "gt_final_label"
	colGTCh1       = "gt_ch1_tamper"
	colGTCh2       = "gt_ch2_mismatch"
	colGTCh3       = "gt_ch3_logic"
)

// MalformedRow records a sample row that could not be parsed into the
// schema. Such rows are skipped with a warning, excluded from accuracy
// statistics, and still emitted in the report with an Error verdict.
type MalformedRow struct {
	Line int
	ID   string
	Err  error
}

// LoadResult holds the parsed samples and the rows that failed to parse.
// Per-row errors never abort the batch.
type LoadResult struct {
	Samples   []model.Sample
	Malformed []MalformedRow
}

// LoadSamples reads the batch input CSV. A missing file or an unusable
// header is an error; everything row-level is isolated into Malformed.
func LoadSamples(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadSamples(f)
}

// ReadSamples parses the sample CSV from a reader.
func ReadSamples(r io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row arity checked per-row below
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colID, colImagePath, colTextContent} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("input missing required column %q", required)
		}
	}

	result := &LoadResult{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Malformed = append(result.Malformed, MalformedRow{Line: line, Err: err})
			continue
		}

		sample, err := parseRow(cols, row)
		if err != nil {
			result.Malformed = append(result.Malformed, MalformedRow{Line: line, ID: field(cols, row, colID), Err: err})
			continue
		}
		result.Samples = append(result.Samples, sample)
	}

	return result, nil
}

func parseRow(cols map[string]int, row []string) (model.Sample, error) {
	sample := model.Sample{
		ID:          field(cols, row, colID),
		ImagePath:   field(cols, row, colImagePath),
		TextContent: field(cols, row, colTextContent),

		MetaTime:     field(cols, row, colMetaTime),
		MetaWeather:  field(cols, row, colMetaWeather),
		MetaLocation: field(cols, row, colMetaLoc),
		MetaFact:     field(cols, row, colMetaFact),
		MetaObject:   field(cols, row, colMetaObject),
		MetaTopic:    field(cols, row, colMetaTopic),
	}

	if sample.ID == "" {
		return sample, fmt.Errorf("empty ID")
	}
	if sample.ImagePath == "" {
		return sample, fmt.Errorf("empty Image_Path")
	}
	if sample.TextContent == "" {
		return sample, fmt.Errorf("empty Text_Content")
	}

	var err error
	if sample.GTFinalLabel, err = parseLabel(field(cols, row, colGTFinal)); err != nil {
		return sample, fmt.Errorf("GT_Final_Label: %w", err)
	}
	if sample.GTCh1Tamper, err = parseLabel(field(cols, row, colGTCh1)); err != nil {
		return sample, fmt.Errorf("GT_Ch1_Tamper: %w", err)
	}
	if sample.GTCh2Mismatch, err = parseLabel(field(cols, row, colGTCh2)); err != nil {
		return sample, fmt.Errorf("GT_Ch2_Mismatch: %w", err)
	}
	if sample.GTCh3Logic, err = parseLabel(field(cols, row, colGTCh3)); err != nil {
		return sample, fmt.Errorf("GT_Ch3_Logic: %w", err)
	}

	return sample, nil
}

// parseLabel accepts 0/1 or blank (absent ground truth).
func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.GTUnset, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return model.GTUnset, fmt.Errorf("not an integer: %q", s)
	}
	if v != 0 && v != 1 {
		return model.GTUnset, fmt.Errorf("label %d not in {0,1}", v)
	}
	return v, nil
}

func field(cols map[string]int, row []string, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
