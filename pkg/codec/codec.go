// Package codec translates between raw configuration blobs and property
// tables using a map definition.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tosih/vehicle-config-tool/pkg/bits"
	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// ProjectCode returns the variant byte that selects a blob's map.
func ProjectCode(blob []byte) (byte, error) {
	if len(blob) <= models.ProjectCodeOffset {
		return 0, &models.BlobLengthError{Expected: models.ProjectCodeOffset + 1, Actual: len(blob)}
	}
	return blob[models.ProjectCodeOffset], nil
}

// Identify reads the project code and selects the matching map.
func Identify(blob []byte, maps models.MapSet) (*models.MapDefinition, error) {
	code, err := ProjectCode(blob)
	if err != nil {
		return nil, err
	}
	return maps.Select(code)
}

// Decode reads every field of def out of blob.
func Decode(blob []byte, def *models.MapDefinition) (models.PropertyTable, error) {
	if len(blob) != def.Size {
		return nil, &models.BlobLengthError{Expected: def.Size, Actual: len(blob)}
	}

	table := make(models.PropertyTable, len(def.Fields))
	for _, f := range def.Fields {
		raw, err := bits.ReadBits(blob, f.ByteOffset, f.BitOffset, f.BitWidth)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", f.Name, err)
		}
		table[f.Name] = FromRaw(f, raw)
	}
	return table, nil
}

// FromRaw converts a field's raw bits to its user-facing value.
func FromRaw(f models.FieldSpec, raw uint64) models.Value {
	switch f.Kind {
	case models.Boolean:
		return models.BoolValue(raw != 0)
	case models.BitString:
		s := strconv.FormatUint(raw, 2)
		return models.BitsValue(strings.Repeat("0", int(f.BitWidth)-len(s)) + s)
	default:
		return models.UintValue(raw)
	}
}

// ToRaw converts a value back to the integer stored in f's bits.
func ToRaw(f models.FieldSpec, v models.Value) (uint64, error) {
	if v.Kind != f.Kind {
		return 0, &models.TypeMismatchError{Field: f.Name, Expected: f.Kind, Actual: v.Kind}
	}
	if v.Kind == models.BitString && uint(len(v.Bits)) != f.BitWidth {
		return 0, &models.ValueOverflowError{Field: f.Name, Value: v.Bits, BitWidth: f.BitWidth}
	}

	raw, err := v.Raw()
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", f.Name, err)
	}
	if raw > f.MaxValue() {
		return 0, &models.ValueOverflowError{Field: f.Name, Value: v.String(), BitWidth: f.BitWidth}
	}
	return raw, nil
}

// Encode writes every field of table into a copy of base. Bytes that no
// field covers keep the values they had in base. base is never modified.
func Encode(table models.PropertyTable, def *models.MapDefinition, base []byte) ([]byte, error) {
	if len(base) != def.Size {
		return nil, &models.BlobLengthError{Expected: def.Size, Actual: len(base)}
	}
	for name := range table {
		if _, ok := def.Field(name); !ok {
			return nil, &models.UnknownPropertyError{Name: name}
		}
	}

	raws := make([]uint64, len(def.Fields))
	for i, f := range def.Fields {
		v, ok := table[f.Name]
		if !ok {
			return nil, &models.MissingFieldError{Field: f.Name}
		}
		raw, err := ToRaw(f, v)
		if err != nil {
			return nil, err
		}
		raws[i] = raw
	}

	out := make([]byte, len(base))
	copy(out, base)
	for i, f := range def.Fields {
		if err := bits.WriteBits(out, f.ByteOffset, f.BitOffset, f.BitWidth, raws[i]); err != nil {
			return nil, fmt.Errorf("property %s: %w", f.Name, err)
		}
	}
	return out, nil
}

// ParseValue interprets text for field f: 0/1/true/false for booleans,
// decimal or 0x/0o/0b prefixed literals without digit separators for
// integers, and an exact-length string of 0 and 1 for bit strings.
func ParseValue(f models.FieldSpec, text string) (models.Value, error) {
	switch f.Kind {
	case models.Boolean:
		switch strings.ToLower(text) {
		case "1", "true":
			return models.BoolValue(true), nil
		case "0", "false":
			return models.BoolValue(false), nil
		}
		return models.Value{}, &models.ParseError{Input: text,
			Reason: fmt.Sprintf("property %s expects 0, 1, true or false", f.Name)}

	case models.UnsignedInt:
		if strings.Contains(text, "_") {
			return models.Value{}, &models.ParseError{Input: text,
				Reason: fmt.Sprintf("property %s expects a decimal or hex number", f.Name)}
		}
		n, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return models.Value{}, &models.ValueOverflowError{Field: f.Name, Value: text, BitWidth: f.BitWidth}
			}
			return models.Value{}, &models.ParseError{Input: text,
				Reason: fmt.Sprintf("property %s expects a decimal or hex number", f.Name)}
		}
		if n > f.MaxValue() {
			return models.Value{}, &models.ValueOverflowError{Field: f.Name, Value: text, BitWidth: f.BitWidth}
		}
		return models.UintValue(n), nil

	case models.BitString:
		if text == "" || strings.Trim(text, "01") != "" {
			return models.Value{}, &models.ParseError{Input: text, Reason: "bitstring should contain only 0 and 1"}
		}
		if uint(len(text)) != f.BitWidth {
			return models.Value{}, &models.ValueOverflowError{Field: f.Name, Value: text, BitWidth: f.BitWidth}
		}
		return models.BitsValue(text), nil
	}

	return models.Value{}, &models.TypeMismatchError{Field: f.Name, Expected: f.Kind}
}

// ApplyAssignment parses text for the named field and stores it in table.
// table is left unchanged when an error is returned.
func ApplyAssignment(table models.PropertyTable, def *models.MapDefinition, name, text string) error {
	f, ok := def.Field(name)
	if !ok {
		return &models.UnknownPropertyError{Name: name}
	}
	v, err := ParseValue(f, text)
	if err != nil {
		return err
	}
	table[name] = v
	return nil
}
