// Package proptext renders property tables as editable text and parses the
// text back into assignments.
//
// Each line holds one property. Bit string fields are written as
// name:bitstring and every other field as name=value, the same syntax the
// command line accepts for assignments.
package proptext

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tosih/vehicle-config-tool/pkg/codec"
	"github.com/tosih/vehicle-config-tool/pkg/models"
)

const (
	BitsSeparator  = ':'
	ValueSeparator = '='
)

// Assignment is a property name and its unparsed value text.
type Assignment struct {
	Name  string
	Sep   byte
	Value string
	Line  int
}

func (a Assignment) String() string {
	sep := a.Sep
	if sep == 0 {
		sep = ValueSeparator
	}
	return a.Name + string(sep) + a.Value
}

// Separator returns the separator used for fields of kind k.
func Separator(k models.ValueKind) byte {
	if k == models.BitString {
		return BitsSeparator
	}
	return ValueSeparator
}

// ToText renders one line per field in map order.
func ToText(table models.PropertyTable, def *models.MapDefinition) ([]string, error) {
	lines := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		v, ok := table[f.Name]
		if !ok {
			return nil, &models.MissingFieldError{Field: f.Name}
		}
		if v.Kind != f.Kind {
			return nil, &models.TypeMismatchError{Field: f.Name, Expected: f.Kind, Actual: v.Kind}
		}
		lines = append(lines, f.Name+string(Separator(f.Kind))+v.String())
	}
	return lines, nil
}

// ParseLine splits one line at its first separator and checks the name
// and separator against def.
func ParseLine(line string, def *models.MapDefinition) (Assignment, error) {
	i := strings.IndexAny(line, string([]byte{BitsSeparator, ValueSeparator}))
	if i < 0 {
		return Assignment{}, &models.ParseError{Input: line,
			Reason: "should be in format PROPERTY:BITSTRING or PROPERTY=VALUE"}
	}
	name, sep, value := line[:i], line[i], line[i+1:]
	if name == "" {
		return Assignment{}, &models.ParseError{Input: line, Reason: "empty property name"}
	}

	f, ok := def.Field(name)
	if !ok {
		return Assignment{}, &models.ParseError{Input: line,
			Reason: (&models.UnknownPropertyError{Name: name}).Error()}
	}
	if want := Separator(f.Kind); sep != want {
		return Assignment{}, &models.ParseError{Input: line,
			Reason: fmt.Sprintf("%s property %s should use %q", f.Kind, name, want)}
	}
	return Assignment{Name: name, Sep: sep, Value: value}, nil
}

// FromText parses lines into assignments. Blank lines, unknown names and
// repeated names are rejected.
func FromText(lines []string, def *models.MapDefinition) ([]Assignment, error) {
	seen := make(map[string]int, len(lines))
	out := make([]Assignment, 0, len(lines))
	for i, line := range lines {
		a, err := ParseLine(line, def)
		if err != nil {
			if perr, ok := err.(*models.ParseError); ok {
				perr.Line = i + 1
			}
			return nil, err
		}
		if prev, dup := seen[a.Name]; dup {
			return nil, &models.ParseError{Line: i + 1, Input: line,
				Reason: fmt.Sprintf("property %s already assigned on line %d", a.Name, prev)}
		}
		a.Line = i + 1
		seen[a.Name] = a.Line
		out = append(out, a)
	}
	return out, nil
}

// Apply stores every assignment in table, or none of them if any fails.
func Apply(table models.PropertyTable, def *models.MapDefinition, assignments []Assignment) error {
	staged := table.Clone()
	for _, a := range assignments {
		if err := codec.ApplyAssignment(staged, def, a.Name, a.Value); err != nil {
			if a.Line > 0 {
				return fmt.Errorf("line %d: %w", a.Line, err)
			}
			return err
		}
	}
	for k, v := range staged {
		table[k] = v
	}
	return nil
}

// ReadLines splits r into lines, dropping line terminators.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// WriteLines writes each line followed by a newline.
func WriteLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
