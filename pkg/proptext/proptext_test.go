package proptext

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tosih/vehicle-config-tool/pkg/codec"
	"github.com/tosih/vehicle-config-tool/pkg/models"
)

func testMap(t *testing.T) *models.MapDefinition {
	t.Helper()
	def, err := models.NewMapDefinition(0x05, "text", 6, []models.FieldSpec{
		{Name: "AAA", ByteOffset: 0, BitWidth: 8, Kind: models.UnsignedInt},
		{Name: "seatHeater", ByteOffset: 3, BitOffset: 2, BitWidth: 1, Kind: models.Boolean},
		{Name: "lights", ByteOffset: 2, BitWidth: 4, Kind: models.BitString},
		{Name: "volume", ByteOffset: 4, BitOffset: 4, BitWidth: 10, Kind: models.UnsignedInt},
	})
	if err != nil {
		t.Fatalf("NewMapDefinition: %v", err)
	}
	return def
}

func TestToText(t *testing.T) {
	def := testMap(t)
	table, err := codec.Decode([]byte{0x05, 0, 0b1001, 0b100, 0x70, 0x02}, def)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	lines, err := ToText(table, def)
	if err != nil {
		t.Fatalf("ToText: %v", err)
	}
	want := []string{"AAA=5", "seatHeater=true", "lights:1001", "volume=39"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("ToText() = %q, want %q", lines, want)
	}
}

func TestToTextIncompleteTable(t *testing.T) {
	def := testMap(t)
	table, _ := codec.Decode(make([]byte, 6), def)
	delete(table, "lights")

	var missing *models.MissingFieldError
	if _, err := ToText(table, def); !errors.As(err, &missing) {
		t.Errorf("ToText error = %v, want MissingFieldError", err)
	}
}

func TestFromText(t *testing.T) {
	def := testMap(t)

	got, err := FromText([]string{"seatHeater=false", "lights:0110", "volume=0x3FF"}, def)
	if err != nil {
		t.Fatalf("FromText: %v", err)
	}
	want := []Assignment{
		{Name: "seatHeater", Sep: '=', Value: "false", Line: 1},
		{Name: "lights", Sep: ':', Value: "0110", Line: 2},
		{Name: "volume", Sep: '=', Value: "0x3FF", Line: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("FromText() returned %d assignments, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("assignment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFromTextErrors(t *testing.T) {
	def := testMap(t)

	tests := []struct {
		name     string
		lines    []string
		wantLine int
	}{
		{"no separator", []string{"seatHeater"}, 1},
		{"blank line", []string{"AAA=5", ""}, 2},
		{"empty name", []string{"=1"}, 1},
		{"unknown name", []string{"sunroof=1"}, 1},
		{"bits field with equals", []string{"lights=5"}, 1},
		{"bool field with colon", []string{"AAA=5", "seatHeater:1"}, 2},
		{"duplicate", []string{"volume=1", "AAA=5", "volume=2"}, 3},
		{"comment", []string{"# heading"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromText(tt.lines, def)
			var parseErr *models.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("FromText error = %v, want ParseError", err)
			}
			if parseErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", parseErr.Line, tt.wantLine)
			}
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	def := testMap(t)
	blobs := [][]byte{
		{0x05, 0xFF, 0x0F, 0xFF, 0xF0, 0xFF},
		{0x05, 0x00, 0x0A, 0x04, 0x50, 0x01},
	}

	for _, blob := range blobs {
		want, err := codec.Decode(blob, def)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		lines, err := ToText(want, def)
		if err != nil {
			t.Fatalf("ToText: %v", err)
		}
		assignments, err := FromText(lines, def)
		if err != nil {
			t.Fatalf("FromText: %v", err)
		}

		fresh, err := codec.Decode([]byte{0x05, 0, 0, 0, 0, 0}, def)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if err := Apply(fresh, def, assignments); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if !fresh.Equal(want) {
			t.Errorf("round trip of %x = %v, want %v", blob, fresh, want)
		}
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	def := testMap(t)
	table, _ := codec.Decode([]byte{0x05, 0, 0, 0, 0, 0}, def)
	before := table.Clone()

	err := Apply(table, def, []Assignment{
		{Name: "seatHeater", Value: "true", Line: 1},
		{Name: "volume", Value: "4096", Line: 2},
	})
	var overflow *models.ValueOverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("Apply error = %v, want ValueOverflowError", err)
	}
	if !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("error %q does not name line 2", err)
	}
	if !table.Equal(before) {
		t.Errorf("table modified by failed Apply")
	}
}

func TestReadWriteLines(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLines(&buf, []string{"AAA=5", "lights:0001"}); err != nil {
		t.Fatalf("WriteLines: %v", err)
	}
	if buf.String() != "AAA=5\nlights:0001\n" {
		t.Errorf("WriteLines wrote %q", buf.String())
	}

	lines, err := ReadLines(strings.NewReader("AAA=5\r\nlights:0001\n"))
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "AAA=5" || lines[1] != "lights:0001" {
		t.Errorf("ReadLines() = %q", lines)
	}
}
