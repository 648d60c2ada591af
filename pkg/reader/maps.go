package reader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// Format is the serialization of a map source
type Format int

const (
	// FormatJSON accepts JSON with comments and trailing commas.
	FormatJSON Format = iota
	FormatYAML
)

// legacyTableKey holds the position table in the vendor's own map files.
const legacyTableKey = "ro.vehicle.config"

var positionPattern = regexp.MustCompile(`^\[(\d+)\]\[(\d+):(\d+)\]$`)

type mapFile struct {
	Maps []mapEntry `json:"maps" yaml:"maps"`
}

type mapEntry struct {
	Name         string       `json:"name" yaml:"name"`
	ProjectCode  *int         `json:"project_code" yaml:"project_code"`
	ProjectCodes []int        `json:"project_codes" yaml:"project_codes"`
	ConfigSize   int          `json:"config_size" yaml:"config_size"`
	Fields       []fieldEntry `json:"fields" yaml:"fields"`
}

type fieldEntry struct {
	Name        string `json:"name" yaml:"name"`
	Byte        *int   `json:"byte" yaml:"byte"`
	Bit         *int   `json:"bit" yaml:"bit"`
	Width       *int   `json:"width" yaml:"width"`
	Position    string `json:"position" yaml:"position"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

type legacyFile struct {
	ConfigSize  int             `json:"config_size"`
	ProjectCode json.RawMessage `json:"project_code"`
	Table       json.RawMessage `json:"ro.vehicle.config"`
}

// FormatForPath picks the map format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadMapsFile reads a map source from disk.
func LoadMapsFile(path string) (models.MapSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	maps, err := LoadMaps(f, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return maps, nil
}

// LoadMaps parses a map source into one definition per project code.
func LoadMaps(r io.Reader, format Format) (models.MapSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var file mapFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, &models.MapFormatError{Reason: err.Error()}
		}
	default:
		data = jsonc.ToJSON(data)
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, &models.MapFormatError{Reason: err.Error()}
		}
		if _, ok := probe[legacyTableKey]; ok {
			return loadLegacy(data)
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, &models.MapFormatError{Reason: err.Error()}
		}
	}

	if len(file.Maps) == 0 {
		return nil, &models.MapFormatError{Reason: "no maps defined"}
	}

	maps := make(models.MapSet)
	for i, entry := range file.Maps {
		label := entry.Name
		if label == "" {
			label = fmt.Sprintf("maps[%d]", i)
		}
		codes, err := entryCodes(label, entry)
		if err != nil {
			return nil, err
		}
		fields := make([]models.FieldSpec, 0, len(entry.Fields))
		for _, fe := range entry.Fields {
			field, err := fe.fieldSpec(label)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		if err := addMaps(maps, codes, entry.Name, entry.ConfigSize, fields); err != nil {
			return nil, err
		}
	}
	return maps, nil
}

func entryCodes(label string, entry mapEntry) ([]byte, error) {
	raw := entry.ProjectCodes
	if entry.ProjectCode != nil {
		raw = append([]int{*entry.ProjectCode}, raw...)
	}
	if len(raw) == 0 {
		return nil, &models.MapFormatError{Map: label, Reason: "missing project code"}
	}
	return toCodes(label, raw)
}

func toCodes(label string, raw []int) ([]byte, error) {
	codes := make([]byte, 0, len(raw))
	for _, c := range raw {
		if c < 0 || c > 0xFF {
			return nil, &models.MapFormatError{Map: label, Reason: fmt.Sprintf("project code %d does not fit in a byte", c)}
		}
		codes = append(codes, byte(c))
	}
	return codes, nil
}

func (fe fieldEntry) fieldSpec(label string) (models.FieldSpec, error) {
	if fe.Name == "" {
		return models.FieldSpec{}, &models.MapFormatError{Map: label, Reason: "field without a name"}
	}
	if fe.Type == "" {
		return models.FieldSpec{}, &models.MapFormatError{Map: label, Field: fe.Name, Reason: "missing type"}
	}
	kind, ok := models.ParseValueKind(fe.Type)
	if !ok {
		return models.FieldSpec{}, &models.MapFormatError{Map: label, Field: fe.Name, Reason: fmt.Sprintf("unknown type %q", fe.Type)}
	}

	var field models.FieldSpec
	switch {
	case fe.Position != "":
		pos, err := ParsePosition(fe.Position)
		if err != nil {
			return models.FieldSpec{}, &models.MapFormatError{Map: label, Field: fe.Name, Reason: err.Error()}
		}
		field = pos
	case fe.Byte != nil && fe.Width != nil:
		if *fe.Byte < 0 || *fe.Width < 0 || (fe.Bit != nil && *fe.Bit < 0) {
			return models.FieldSpec{}, &models.MapFormatError{Map: label, Field: fe.Name, Reason: "negative offset or width"}
		}
		field.ByteOffset = *fe.Byte
		field.BitWidth = uint(*fe.Width)
		if fe.Bit != nil {
			field.BitOffset = uint(*fe.Bit)
		}
	case fe.Byte == nil:
		return models.FieldSpec{}, &models.MapFormatError{Map: label, Field: fe.Name, Reason: "missing byte offset"}
	default:
		return models.FieldSpec{}, &models.MapFormatError{Map: label, Field: fe.Name, Reason: "missing width"}
	}

	field.Name = fe.Name
	field.Kind = kind
	field.Description = fe.Description
	return field, nil
}

// ParsePosition reads a "[byte][high:low]" location. Only Name and Kind
// are left unset in the result.
func ParsePosition(pos string) (models.FieldSpec, error) {
	m := positionPattern.FindStringSubmatch(strings.TrimSpace(pos))
	if m == nil {
		return models.FieldSpec{}, fmt.Errorf("invalid position format: %s", pos)
	}
	byteIdx, _ := strconv.Atoi(m[1])
	high, _ := strconv.Atoi(m[2])
	low, _ := strconv.Atoi(m[3])

	if low > 7 {
		return models.FieldSpec{}, fmt.Errorf("low bit %d should be in range [0...7]", low)
	}
	if low > high {
		return models.FieldSpec{}, fmt.Errorf("low bit %d should not exceed high bit %d", low, high)
	}
	if high-low+1 > models.MaxBitWidth {
		return models.FieldSpec{}, fmt.Errorf("position %s is wider than %d bits", pos, models.MaxBitWidth)
	}
	return models.FieldSpec{
		ByteOffset: byteIdx,
		BitOffset:  uint(low),
		BitWidth:   uint(high - low + 1),
	}, nil
}

// loadLegacy reads the vendor layout: one position table shared by a list
// of project codes. Single-bit positions become booleans and wider ones
// unsigned integers.
func loadLegacy(data []byte) (models.MapSet, error) {
	var file legacyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &models.MapFormatError{Reason: err.Error()}
	}

	var raw []int
	if len(file.ProjectCode) == 0 {
		return nil, &models.MapFormatError{Map: legacyTableKey, Reason: "missing project code"}
	}
	if err := json.Unmarshal(file.ProjectCode, &raw); err != nil {
		var single int
		if err := json.Unmarshal(file.ProjectCode, &single); err != nil {
			return nil, &models.MapFormatError{Map: legacyTableKey, Reason: "project_code should be a number or a list of numbers"}
		}
		raw = []int{single}
	}
	codes, err := toCodes(legacyTableKey, raw)
	if err != nil {
		return nil, err
	}

	fields, err := orderedPositions(file.Table)
	if err != nil {
		return nil, err
	}

	maps := make(models.MapSet)
	if err := addMaps(maps, codes, legacyTableKey, file.ConfigSize, fields); err != nil {
		return nil, err
	}
	return maps, nil
}

// orderedPositions walks the position object token by token so fields keep
// the order they have in the file.
func orderedPositions(table json.RawMessage) ([]models.FieldSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(table))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, &models.MapFormatError{Map: legacyTableKey, Reason: "position table should be an object"}
	}

	var fields []models.FieldSpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &models.MapFormatError{Map: legacyTableKey, Reason: err.Error()}
		}
		name, _ := keyTok.(string)

		var pos string
		if err := dec.Decode(&pos); err != nil {
			return nil, &models.MapFormatError{Map: legacyTableKey, Field: name, Reason: "position should be a string"}
		}
		field, err := ParsePosition(pos)
		if err != nil {
			return nil, &models.MapFormatError{Map: legacyTableKey, Field: name, Reason: err.Error()}
		}
		field.Name = name
		field.Kind = models.UnsignedInt
		if field.BitWidth == 1 {
			field.Kind = models.Boolean
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func addMaps(maps models.MapSet, codes []byte, name string, size int, fields []models.FieldSpec) error {
	for _, code := range codes {
		def, err := models.NewMapDefinition(code, name, size, fields)
		if err != nil {
			return err
		}
		if err := maps.Add(def); err != nil {
			return err
		}
	}
	return nil
}
