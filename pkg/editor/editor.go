package editor

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/zeebo/blake3"

	"github.com/tosih/vehicle-config-tool/pkg/codec"
	"github.com/tosih/vehicle-config-tool/pkg/models"
	"github.com/tosih/vehicle-config-tool/pkg/proptext"
	"github.com/tosih/vehicle-config-tool/pkg/serializer"
)

// ProjectCodeChangeError indicates an assignment that would rewrite the
// project code byte and so move the blob to a different map.
type ProjectCodeChangeError struct {
	Field string
}

func (e *ProjectCodeChangeError) Error() string {
	return fmt.Sprintf("property %s overlaps the project code; project code change is not supported", e.Field)
}

// Change records one applied assignment.
type Change struct {
	Field string
	Old   models.Value
	New   models.Value
}

// Editor holds a decoded blob while assignments are applied to it.
type Editor struct {
	def     *models.MapDefinition
	base    []byte
	table   models.PropertyTable
	changes []Change
}

// Open selects the map for blob by its project code and decodes it.
func Open(maps models.MapSet, blob []byte) (*Editor, error) {
	def, err := codec.Identify(blob, maps)
	if err != nil {
		return nil, err
	}
	return New(def, blob)
}

// New decodes blob with def. The editor keeps its own copy of blob.
func New(def *models.MapDefinition, blob []byte) (*Editor, error) {
	table, err := codec.Decode(blob, def)
	if err != nil {
		return nil, err
	}
	base := make([]byte, len(blob))
	copy(base, blob)
	return &Editor{def: def, base: base, table: table}, nil
}

// NewBlank starts from a zeroed blob carrying only the project code.
func NewBlank(def *models.MapDefinition) (*Editor, error) {
	blob := make([]byte, def.Size)
	blob[models.ProjectCodeOffset] = def.ProjectCode
	return New(def, blob)
}

func (e *Editor) Map() *models.MapDefinition  { return e.def }
func (e *Editor) Base() []byte                { return e.base }
func (e *Editor) Changes() []Change           { return e.changes }
func (e *Editor) Table() models.PropertyTable { return e.table.Clone() }

// Apply parses and stores one assignment. The project code cannot be
// changed through a field that covers it, but may be restated.
func (e *Editor) Apply(a proptext.Assignment) (Change, error) {
	f, ok := e.def.Field(a.Name)
	if !ok {
		return Change{}, &models.UnknownPropertyError{Name: a.Name}
	}

	old := e.table[a.Name]
	staged := models.PropertyTable{a.Name: old}
	if err := codec.ApplyAssignment(staged, e.def, a.Name, a.Value); err != nil {
		return Change{}, err
	}
	updated := staged[a.Name]

	if f.StartBit() < (models.ProjectCodeOffset+1)*8 && updated != old {
		return Change{}, &ProjectCodeChangeError{Field: a.Name}
	}

	e.table[a.Name] = updated
	c := Change{Field: a.Name, Old: old, New: updated}
	e.changes = append(e.changes, c)
	return c, nil
}

// ApplyAll applies assignments in order and stops at the first failure.
func (e *Editor) ApplyAll(assignments []proptext.Assignment) error {
	for _, a := range assignments {
		if _, err := e.Apply(a); err != nil {
			if a.Line > 0 {
				return fmt.Errorf("line %d: %w", a.Line, err)
			}
			return err
		}
	}
	return nil
}

// Encode produces the edited blob, preserving every unmapped bit of the original.
func (e *Editor) Encode() ([]byte, error) {
	return codec.Encode(e.table, e.def, e.base)
}

// Text renders the current table as property lines.
func (e *Editor) Text() ([]string, error) {
	return proptext.ToText(e.table, e.def)
}

// PrintChanges reports applied assignments the way the vehicle tool always has.
func PrintChanges(changes []Change) {
	for _, c := range changes {
		if c.Old == c.New {
			pterm.Debug.Printf("Property %s unchanged: %s\n", c.Field, c.New)
			continue
		}
		pterm.Info.Printf("Update property %s: %s -> %s\n", c.Field, c.Old, c.New)
	}
}

// Fingerprint returns the BLAKE3-256 digest of blob in hex.
func Fingerprint(blob []byte) string {
	sum := blake3.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// CreateBackup creates a timestamped backup of the file
func CreateBackup(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102_150405")
	backupName := filename + ".backup_" + timestamp
	err = os.WriteFile(backupName, data, 0644)
	if err != nil {
		return "", err
	}

	return backupName, nil
}

// WriteBlobFile serializes blob with s and writes it to filename.
func WriteBlobFile(filename string, s serializer.Serializer, blob []byte) error {
	return os.WriteFile(filename, s.Encode(blob), 0644)
}

// WriteTextFile writes property lines to filename.
func WriteTextFile(filename string, lines []string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := proptext.WriteLines(f, lines); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
