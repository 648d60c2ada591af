package models

import (
	"errors"
	"testing"
)

func TestNewMapDefinition(t *testing.T) {
	def, err := NewMapDefinition(0x21, "EU", 0, []FieldSpec{
		{Name: "AAA", ByteOffset: 0, BitWidth: 8, Kind: UnsignedInt},
		{Name: "wide", ByteOffset: 1, BitOffset: 7, BitWidth: 64, Kind: UnsignedInt},
		{Name: "flag", ByteOffset: 1, BitOffset: 0, BitWidth: 1, Kind: Boolean},
	})
	if err != nil {
		t.Fatalf("NewMapDefinition: %v", err)
	}
	if def.Size != 10 {
		t.Errorf("Size = %d, want 10", def.Size)
	}
	if f, ok := def.Field("wide"); !ok || f.EndBit() != 79 {
		t.Errorf("Field(wide) = %+v, %v", f, ok)
	}
	if _, ok := def.Field("Flag"); ok {
		t.Error("field lookup is not case-sensitive")
	}
	if def.Fields[2].Name != "flag" {
		t.Error("field order not preserved")
	}
}

func TestNewMapDefinitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		fields []FieldSpec
	}{
		{"empty name", 0, []FieldSpec{{ByteOffset: 1, BitWidth: 1, Kind: Boolean}}},
		{"separator in name", 0, []FieldSpec{{Name: "a=b", BitWidth: 1, Kind: Boolean}}},
		{"space in name", 0, []FieldSpec{{Name: "a b", BitWidth: 1, Kind: Boolean}}},
		{"negative byte", 0, []FieldSpec{{Name: "a", ByteOffset: -1, BitWidth: 1, Kind: Boolean}}},
		{"bit offset 8", 0, []FieldSpec{{Name: "a", BitOffset: 8, BitWidth: 1, Kind: Boolean}}},
		{"zero width", 0, []FieldSpec{{Name: "a", BitWidth: 0, Kind: Boolean}}},
		{"width 65", 0, []FieldSpec{{Name: "a", BitWidth: 65, Kind: UnsignedInt}}},
		{"no kind", 0, []FieldSpec{{Name: "a", BitWidth: 1}}},
		{"wide bool", 0, []FieldSpec{{Name: "a", ByteOffset: 1, BitWidth: 2, Kind: Boolean}}},
		{"duplicate", 0, []FieldSpec{
			{Name: "a", ByteOffset: 1, BitWidth: 1, Kind: Boolean},
			{Name: "a", ByteOffset: 2, BitWidth: 1, Kind: Boolean},
		}},
		{"overlap in byte", 0, []FieldSpec{
			{Name: "a", ByteOffset: 1, BitOffset: 2, BitWidth: 3, Kind: UnsignedInt},
			{Name: "b", ByteOffset: 1, BitOffset: 4, BitWidth: 1, Kind: Boolean},
		}},
		{"overlap across bytes", 0, []FieldSpec{
			{Name: "b", ByteOffset: 2, BitOffset: 0, BitWidth: 1, Kind: Boolean},
			{Name: "a", ByteOffset: 1, BitOffset: 4, BitWidth: 8, Kind: UnsignedInt},
		}},
		{"size below extent", 2, []FieldSpec{{Name: "a", ByteOffset: 2, BitWidth: 1, Kind: Boolean}}},
		{"negative size", -1, []FieldSpec{{Name: "a", BitWidth: 1, Kind: Boolean}}},
		{"nothing at all", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapDefinition(1, "bad", tt.size, tt.fields)
			var formatErr *MapFormatError
			if !errors.As(err, &formatErr) {
				t.Errorf("error = %v, want MapFormatError", err)
			}
		})
	}
}

func TestAdjacentFieldsDoNotOverlap(t *testing.T) {
	_, err := NewMapDefinition(1, "tight", 0, []FieldSpec{
		{Name: "a", ByteOffset: 1, BitOffset: 0, BitWidth: 4, Kind: UnsignedInt},
		{Name: "b", ByteOffset: 1, BitOffset: 4, BitWidth: 12, Kind: UnsignedInt},
		{Name: "c", ByteOffset: 3, BitOffset: 0, BitWidth: 1, Kind: Boolean},
	})
	if err != nil {
		t.Errorf("adjacent fields rejected: %v", err)
	}
}

func TestMapSet(t *testing.T) {
	set := MapSet{}
	for _, code := range []byte{0x40, 0x05, 0x21} {
		def, err := NewMapDefinition(code, "m", 1, nil)
		if err != nil {
			t.Fatalf("NewMapDefinition: %v", err)
		}
		if err := set.Add(def); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	dup, _ := NewMapDefinition(0x21, "again", 1, nil)
	var formatErr *MapFormatError
	if err := set.Add(dup); !errors.As(err, &formatErr) {
		t.Errorf("duplicate Add error = %v, want MapFormatError", err)
	}

	codes := set.Codes()
	if len(codes) != 3 || codes[0] != 0x05 || codes[1] != 0x21 || codes[2] != 0x40 {
		t.Errorf("Codes() = %v", codes)
	}

	if def, err := set.Select(0x21); err != nil || def.ProjectCode != 0x21 {
		t.Errorf("Select(0x21) = %v, %v", def, err)
	}

	_, err := set.Select(0xFF)
	var unknown *UnknownProjectError
	if !errors.As(err, &unknown) || unknown.Code != 0xFF {
		t.Errorf("Select(0xFF) error = %v, want UnknownProjectError", err)
	}
}

func TestParseValueKind(t *testing.T) {
	tests := []struct {
		token string
		want  ValueKind
		ok    bool
	}{
		{"bool", Boolean, true},
		{"Boolean", Boolean, true},
		{"uint", UnsignedInt, true},
		{" number ", UnsignedInt, true},
		{"bits", BitString, true},
		{"bitstring", BitString, true},
		{"float", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseValueKind(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseValueKind(%q) = %v, %v", tt.token, got, ok)
		}
	}
}

func TestFieldSpecHelpers(t *testing.T) {
	f := FieldSpec{Name: "x", ByteOffset: 2, BitOffset: 6, BitWidth: 5, Kind: UnsignedInt}
	if f.StartBit() != 22 || f.EndBit() != 27 || f.EndByte() != 4 {
		t.Errorf("bit range = %d..%d, end byte %d", f.StartBit(), f.EndBit(), f.EndByte())
	}
	if f.MaxValue() != 31 {
		t.Errorf("MaxValue() = %d", f.MaxValue())
	}
	if f.Position() != "[2][10:6]" {
		t.Errorf("Position() = %s", f.Position())
	}
	if full := (FieldSpec{BitWidth: 64}); full.MaxValue() != ^uint64(0) {
		t.Errorf("64-bit MaxValue() = %#x", full.MaxValue())
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		v    Value
		text string
		raw  uint64
	}{
		{BoolValue(true), "true", 1},
		{BoolValue(false), "false", 0},
		{UintValue(300), "300", 300},
		{BitsValue("00101"), "00101", 5},
	}

	for _, tt := range tests {
		if s := tt.v.String(); s != tt.text {
			t.Errorf("String() = %q, want %q", s, tt.text)
		}
		raw, err := tt.v.Raw()
		if err != nil || raw != tt.raw {
			t.Errorf("%v.Raw() = %d, %v", tt.v, raw, err)
		}
	}

	var parseErr *ParseError
	if _, err := BitsValue("012").Raw(); !errors.As(err, &parseErr) {
		t.Errorf("Raw() of bad bitstring error = %v", err)
	}
}

func TestPropertyTable(t *testing.T) {
	a := PropertyTable{"x": BoolValue(true), "y": UintValue(2)}
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone differs")
	}
	b["x"] = BoolValue(false)
	if a.Equal(b) || a["x"] != BoolValue(true) {
		t.Error("clone shares storage with original")
	}
	delete(b, "x")
	b["z"] = BoolValue(true)
	if a.Equal(b) {
		t.Error("tables with different names reported equal")
	}
}
