package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// Header is the first data row of every exported table.
var Header = []string{"Property", "Position", "Byte", "Bit", "Width", "Type", "Value", "Description"}

// WriteCSV writes one row per field of def in map order, preceded by
// comment rows that identify the map.
func WriteCSV(w io.Writer, def *models.MapDefinition, table models.PropertyTable) error {
	writer := csv.NewWriter(w)

	writer.Write([]string{fmt.Sprintf("# %s", def.Name)})
	writer.Write([]string{fmt.Sprintf("# Project code: 0x%02X", def.ProjectCode)})
	writer.Write([]string{fmt.Sprintf("# Size: %d bytes", def.Size)})
	writer.Write(Header)

	for _, f := range def.Fields {
		v, ok := table[f.Name]
		if !ok {
			return &models.MissingFieldError{Field: f.Name}
		}
		writer.Write([]string{
			f.Name,
			f.Position(),
			fmt.Sprintf("%d", f.ByteOffset),
			fmt.Sprintf("%d", f.BitOffset),
			fmt.Sprintf("%d", f.BitWidth),
			f.Kind.String(),
			v.String(),
			f.Description,
		})
	}

	writer.Flush()
	return writer.Error()
}

// ExportCSV writes the table to filename.
func ExportCSV(filename string, def *models.MapDefinition, table models.PropertyTable) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := WriteCSV(file, def, table); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
