package renderer

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/tosih/vehicle-config-tool/pkg/compare"
	"github.com/tosih/vehicle-config-tool/pkg/coverage"
	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// previewBytes is how many raw bytes a coverage row shows.
const previewBytes = 8

// PropertyRows builds table rows for every field in map order.
func PropertyRows(def *models.MapDefinition, table models.PropertyTable, color bool) pterm.TableData {
	data := pterm.TableData{
		{"Property", "Position", "Type", "Value", "Description"},
	}
	for _, f := range def.Fields {
		value := "<missing>"
		if v, ok := table[f.Name]; ok {
			value = v.String()
			if color {
				value = valueStyle(v).Sprint(value)
			}
		}
		data = append(data, []string{f.Name, f.Position(), f.Kind.String(), value, f.Description})
	}
	return data
}

func valueStyle(v models.Value) *pterm.Style {
	switch v.Kind {
	case models.Boolean:
		if v.Bool {
			return pterm.NewStyle(pterm.FgGreen)
		}
		return pterm.NewStyle(pterm.FgGray)
	case models.BitString:
		if strings.Contains(v.Bits, "1") {
			return pterm.NewStyle(pterm.FgYellow)
		}
		return pterm.NewStyle(pterm.FgGray)
	default:
		if v.Uint == 0 {
			return pterm.NewStyle(pterm.FgGray)
		}
		return pterm.NewStyle(pterm.FgCyan)
	}
}

// RenderProperties displays the decoded config with a summary box on top.
func RenderProperties(def *models.MapDefinition, table models.PropertyTable, source, fingerprint string) {
	pterm.DefaultHeader.WithFullWidth().
		WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightWhite)).
		Println("Vehicle Config - " + mapTitle(def))

	summary := fmt.Sprintf("Source:       %s\nProject code: 0x%02X (%d)\nSize:         %d bytes\nFields:       %d\nBLAKE3:       %s",
		source, def.ProjectCode, def.ProjectCode, def.Size, len(def.Fields), fingerprint)
	pterm.DefaultBox.WithTitle("Summary").WithTitleTopLeft().Println(summary)

	pterm.DefaultTable.WithHasHeader().WithData(PropertyRows(def, table, true)).Render()
}

// MapRows builds one row per project code.
func MapRows(maps models.MapSet) pterm.TableData {
	data := pterm.TableData{
		{"Project code", "Name", "Size", "Fields", "Mapped bits"},
	}
	for _, code := range maps.Codes() {
		def := maps[code]
		data = append(data, []string{
			fmt.Sprintf("0x%02X", code),
			def.Name,
			fmt.Sprintf("%d", def.Size),
			fmt.Sprintf("%d", len(def.Fields)),
			fmt.Sprintf("%d / %d", coverage.MappedBits(def), def.Size*8),
		})
	}
	return data
}

// ListAvailableMaps displays all maps loaded from a map source in a table
func ListAvailableMaps(maps models.MapSet, source string) {
	pterm.DefaultHeader.WithFullWidth().Println("Available Vehicle Config Maps")
	pterm.Info.Printf("Loaded %d map(s) from %s\n", len(maps), source)
	pterm.DefaultTable.WithHasHeader().WithData(MapRows(maps)).Render()
}

// DiffRows builds one row per differing property.
func DiffRows(diffs []compare.Difference) pterm.TableData {
	data := pterm.TableData{
		{"Property", "Position", "Before", "After"},
	}
	for _, d := range diffs {
		data = append(data, []string{d.Field.Name, d.Field.Position(), d.Left.String(), d.Right.String()})
	}
	return data
}

// RenderComparison displays the outcome of comparing two configs.
func RenderComparison(res *compare.Result, file1, file2 string) {
	pterm.DefaultHeader.WithFullWidth().Println("Vehicle Config Comparison")
	pterm.DefaultSection.Printf("%s vs %s (%s)\n", file1, file2, mapTitle(res.Map))

	changed := len(res.Differences)
	pterm.Info.Printf("Changed properties: %d / %d (%.1f%%)\n",
		changed, res.FieldsCompared, percent(changed, res.FieldsCompared))

	if res.UnmappedBits > 0 {
		pterm.Warning.Printf("%d unmapped bit(s) also differ\n", res.UnmappedBits)
	}
	if changed == 0 {
		pterm.Success.Println("No property differences")
		return
	}
	pterm.DefaultTable.WithHasHeader().WithData(DiffRows(res.Differences)).Render()
}

// CoverageRows builds one row per unmapped bit run. blob may be nil.
func CoverageRows(gaps []coverage.Gap, blob []byte) pterm.TableData {
	header := []string{"Position", "Byte", "Bit", "Width"}
	if blob != nil {
		header = append(header, "Preview")
	}
	data := pterm.TableData{header}
	for _, g := range gaps {
		row := []string{
			g.String(),
			fmt.Sprintf("0x%04X", g.ByteOffset()),
			fmt.Sprintf("%d", g.BitOffset()),
			fmt.Sprintf("%d", g.Width()),
		}
		if blob != nil {
			row = append(row, coverage.Preview(g, blob, previewBytes))
		}
		data = append(data, row)
	}
	return data
}

// RenderCoverage displays the bits the map leaves undescribed.
func RenderCoverage(def *models.MapDefinition, gaps []coverage.Gap, blob []byte) {
	pterm.DefaultSection.Printf("Unmapped regions of %s\n", mapTitle(def))

	mapped := coverage.MappedBits(def)
	total := def.Size * 8
	pterm.Info.Printf("Mapped bits: %d / %d (%.1f%%)\n", mapped, total, percent(mapped, total))

	if len(gaps) == 0 {
		pterm.Success.Println("Every bit is described by the map")
		return
	}
	pterm.DefaultTable.WithHasHeader().WithData(CoverageRows(gaps, blob)).Render()
	pterm.Info.Printf("Found %d unmapped region(s); they are copied unchanged on every edit\n", len(gaps))
}

func mapTitle(def *models.MapDefinition) string {
	if def.Name == "" {
		return models.ProjectLabel(def.ProjectCode)
	}
	return fmt.Sprintf("%s, %s", def.Name, models.ProjectLabel(def.ProjectCode))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
