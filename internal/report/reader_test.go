package report

import (
	"strings"
	"testing"

	"github.com/ppiankov/veridict/internal/model"
)

func TestReadSamples(t *testing.T) {
	input := `ID,Image_Path,Text_Content,Meta_Time,Meta_Weather,GT_Final_Label
s1,images/a.jpg,Sunny day at the beach,Day,Sunny,0
s2,images/b.jpg,深夜的街道,Day,,1
s3,images/c.jpg,No ground truth,,,
`

	result, err := ReadSamples(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadSamples failed: %v", err)
	}
	if len(result.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(result.Samples))
	}
	if len(result.Malformed) != 0 {
		t.Errorf("expected no malformed rows, got %v", result.Malformed)
	}

	s1 := result.Samples[0]
	if s1.ID != "s1" || s1.ImagePath != "images/a.jpg" {
		t.Errorf("unexpected sample: %+v", s1)
	}
	if s1.MetaTime != "Day" || s1.MetaWeather != "Sunny" {
		t.Errorf("meta columns not parsed: %+v", s1)
	}
	if s1.GTFinalLabel != 0 {
		t.Errorf("expected label 0, got %d", s1.GTFinalLabel)
	}
	if result.Samples[1].GTFinalLabel != 1 {
		t.Errorf("expected label 1, got %d", result.Samples[1].GTFinalLabel)
	}
	if result.Samples[2].GTFinalLabel != model.GTUnset {
		t.Errorf("blank label must be GTUnset, got %d", result.Samples[2].GTFinalLabel)
	}
}

func TestReadSamples_HeaderCaseInsensitive(t *testing.T) {
	input := "id,IMAGE_PATH,text_content\ns1,a.jpg,hello\n"

	result, err := ReadSamples(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadSamples failed: %v", err)
	}
	if len(result.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(result.Samples))
	}
}

func TestReadSamples_MissingRequiredColumn(t *testing.T) {
	input := "ID,Text_Content\ns1,hello\n"

	if _, err := ReadSamples(strings.NewReader(input)); err == nil {
		t.Error("expected error for missing Image_Path column")
	}
}

func TestReadSamples_MalformedRowsIsolated(t *testing.T) {
	input := `ID,Image_Path,Text_Content,GT_Final_Label
s1,a.jpg,ok,0
,b.jpg,missing id,
s3,,missing image,
s4,d.jpg,bad label,2
s5,e.jpg,ok again,1
`

	result, err := ReadSamples(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadSamples failed: %v", err)
	}
	if len(result.Samples) != 2 {
		t.Errorf("expected 2 valid samples, got %d", len(result.Samples))
	}
	if len(result.Malformed) != 3 {
		t.Fatalf("expected 3 malformed rows, got %d", len(result.Malformed))
	}

	// Line numbers are 1-based including the header.
	if result.Malformed[0].Line != 3 {
		t.Errorf("expected line 3, got %d", result.Malformed[0].Line)
	}
	if result.Malformed[1].ID != "s3" {
		t.Errorf("expected ID s3 on malformed row, got %q", result.Malformed[1].ID)
	}
	if result.Malformed[2].ID != "s4" {
		t.Errorf("expected ID s4 on malformed row, got %q", result.Malformed[2].ID)
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", model.GTUnset, false},
		{"  ", model.GTUnset, false},
		{"0", 0, false},
		{"1", 1, false},
		{"2", model.GTUnset, true},
		{"-1", model.GTUnset, true},
		{"yes", model.GTUnset, true},
	}

	for _, tt := range tests {
		got, err := parseLabel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLabel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLabel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoadSamples_Missing(t *testing.T) {
	if _, err := LoadSamples("no_such_file.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}
