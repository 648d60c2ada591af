package models

import (
	"fmt"
	"sort"
	"strings"
)

// ProjectCodeOffset is the byte that identifies the vehicle variant in every blob.
const ProjectCodeOffset = 0

// MaxBitWidth is the widest field a map may declare.
const MaxBitWidth = 64

// ValueKind selects how a field's raw bits are presented to the user
type ValueKind int

const (
	Boolean ValueKind = iota + 1
	UnsignedInt
	BitString
)

func (k ValueKind) String() string {
	switch k {
	case Boolean:
		return "bool"
	case UnsignedInt:
		return "uint"
	case BitString:
		return "bits"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseValueKind maps a map-file type token to a ValueKind.
func ParseValueKind(token string) (ValueKind, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "bool", "boolean":
		return Boolean, true
	case "uint", "unsigned", "int", "number":
		return UnsignedInt, true
	case "bits", "bitstring":
		return BitString, true
	}
	return 0, false
}

// FieldSpec describes one named bit run inside a blob
type FieldSpec struct {
	Name        string
	ByteOffset  int
	BitOffset   uint
	BitWidth    uint
	Kind        ValueKind
	Description string
}

// StartBit is the absolute index of the field's least significant bit.
func (f FieldSpec) StartBit() int {
	return f.ByteOffset*8 + int(f.BitOffset)
}

// EndBit is one past the absolute index of the field's most significant bit.
func (f FieldSpec) EndBit() int {
	return f.StartBit() + int(f.BitWidth)
}

// EndByte is one past the last byte the field touches.
func (f FieldSpec) EndByte() int {
	return (f.EndBit() + 7) / 8
}

// MaxValue is the largest raw value the field can hold.
func (f FieldSpec) MaxValue() uint64 {
	if f.BitWidth >= 64 {
		return ^uint64(0)
	}
	return 1<<f.BitWidth - 1
}

// Position renders the field location as [byte][high:low], the notation
// used by the vendor map files. The high bit is relative to ByteOffset and
// may exceed 7 for fields that run into following bytes.
func (f FieldSpec) Position() string {
	return fmt.Sprintf("[%d][%d:%d]", f.ByteOffset, int(f.BitOffset)+int(f.BitWidth)-1, f.BitOffset)
}

// MapDefinition is the field layout for one project code
type MapDefinition struct {
	ProjectCode byte
	Name        string
	Size        int
	Fields      []FieldSpec

	index map[string]int
}

// NewMapDefinition validates fields and builds a definition. A size of
// zero means "as long as the furthest field reaches".
func NewMapDefinition(code byte, name string, size int, fields []FieldSpec) (*MapDefinition, error) {
	def := &MapDefinition{
		ProjectCode: code,
		Name:        name,
		Fields:      make([]FieldSpec, len(fields)),
		index:       make(map[string]int, len(fields)),
	}
	copy(def.Fields, fields)

	extent := 0
	for i, f := range def.Fields {
		if err := validateField(code, f); err != nil {
			return nil, err
		}
		if _, dup := def.index[f.Name]; dup {
			return nil, &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: "duplicate field name"}
		}
		def.index[f.Name] = i
		if end := f.EndByte(); end > extent {
			extent = end
		}
	}

	if err := checkOverlaps(code, def.Fields); err != nil {
		return nil, err
	}

	switch {
	case size < 0:
		return nil, &MapFormatError{Map: ProjectLabel(code), Reason: fmt.Sprintf("negative config size %d", size)}
	case size == 0 && extent == 0:
		return nil, &MapFormatError{Map: ProjectLabel(code), Reason: "map has no fields and no config size"}
	case size == 0:
		def.Size = extent
	case size < extent:
		return nil, &MapFormatError{Map: ProjectLabel(code),
			Reason: fmt.Sprintf("config size %d is smaller than field extent %d", size, extent)}
	default:
		def.Size = size
	}

	return def, nil
}

func validateField(code byte, f FieldSpec) error {
	if f.Name == "" {
		return &MapFormatError{Map: ProjectLabel(code), Reason: "field with empty name"}
	}
	if strings.ContainsAny(f.Name, ":= \t\r\n") {
		return &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: "name contains a separator or whitespace"}
	}
	if f.ByteOffset < 0 {
		return &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: fmt.Sprintf("negative byte offset %d", f.ByteOffset)}
	}
	if f.BitOffset > 7 {
		return &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: fmt.Sprintf("bit offset %d should be in range [0...7]", f.BitOffset)}
	}
	if f.BitWidth < 1 || f.BitWidth > MaxBitWidth {
		return &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: fmt.Sprintf("bit width %d should be in range [1...64]", f.BitWidth)}
	}
	switch f.Kind {
	case Boolean:
		if f.BitWidth != 1 {
			return &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: fmt.Sprintf("bool field must be 1 bit wide, not %d", f.BitWidth)}
		}
	case UnsignedInt, BitString:
	default:
		return &MapFormatError{Map: ProjectLabel(code), Field: f.Name, Reason: fmt.Sprintf("unknown value kind %s", f.Kind)}
	}
	return nil
}

func checkOverlaps(code byte, fields []FieldSpec) error {
	sorted := make([]FieldSpec, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartBit() < sorted[j].StartBit() })

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.StartBit() < prev.EndBit() {
			return &MapFormatError{Map: ProjectLabel(code), Field: cur.Name,
				Reason: fmt.Sprintf("bits %s overlap field %s %s", cur.Position(), prev.Name, prev.Position())}
		}
	}
	return nil
}

// Field looks up a field by its case-sensitive name.
func (m *MapDefinition) Field(name string) (FieldSpec, bool) {
	i, ok := m.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return m.Fields[i], true
}

// MapSet holds every map loaded from one source, keyed by project code
type MapSet map[byte]*MapDefinition

// Add registers def, rejecting a second map for the same project code.
func (s MapSet) Add(def *MapDefinition) error {
	if existing, ok := s[def.ProjectCode]; ok {
		return &MapFormatError{Map: ProjectLabel(def.ProjectCode),
			Reason: fmt.Sprintf("project code already defined by map %q", existing.Name)}
	}
	s[def.ProjectCode] = def
	return nil
}

// Select returns the map for a project code.
func (s MapSet) Select(code byte) (*MapDefinition, error) {
	def, ok := s[code]
	if !ok {
		return nil, &UnknownProjectError{Code: code}
	}
	return def, nil
}

// Codes lists the known project codes in ascending order.
func (s MapSet) Codes() []byte {
	codes := make([]byte, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
