package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/tosih/vehicle-config-tool/pkg/compare"
	"github.com/tosih/vehicle-config-tool/pkg/coverage"
	"github.com/tosih/vehicle-config-tool/pkg/editor"
	"github.com/tosih/vehicle-config-tool/pkg/export"
	"github.com/tosih/vehicle-config-tool/pkg/models"
	"github.com/tosih/vehicle-config-tool/pkg/proptext"
	"github.com/tosih/vehicle-config-tool/pkg/reader"
	"github.com/tosih/vehicle-config-tool/pkg/renderer"
	"github.com/tosih/vehicle-config-tool/pkg/serializer"
)

// textType selects property text instead of a blob serializer.
const textType = "text"

// inputOptions are the flags shared by every command that reads a config.
type inputOptions struct {
	mapPath   string
	typ       string
	src       string
	project   string
	base      string
	baseType  string
	strictCRC bool
	verbose   bool
}

func (o *inputOptions) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.mapPath, "map", "map.json", "path to JSON or YAML file with mapping of properties to config bits")
	fs.StringVar(&o.typ, "type", "binary", "config file type: binary, hex or text")
	fs.StringVar(&o.src, "src", "", "path to source config file")
	fs.StringVar(&o.project, "project", "", "project code for text input without --base (e.g. 0x21)")
	fs.StringVar(&o.base, "base", "", "config whose unmapped bits text input is applied over")
	fs.StringVar(&o.baseType, "base-type", "binary", "file type of --base: binary or hex")
	fs.BoolVar(&o.strictCRC, "strict-crc", false, "fail instead of warn when a binary checksum is wrong")
	fs.BoolVar(&o.verbose, "verbose", false, "print debug messages")
}

func (o *inputOptions) setup() {
	if o.verbose {
		pterm.EnableDebugMessages()
	}
}

func (o *inputOptions) source() string {
	if o.src != "" {
		return o.src
	}
	return "VehicleConfig." + extension(o.typ)
}

func extension(typ string) string {
	if typ == textType {
		return "txt"
	}
	if s, err := serializer.New(typ); err == nil {
		return s.Extension()
	}
	return typ
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func loadMaps(path string) (models.MapSet, error) {
	pterm.Info.Printf("Read property map from %s\n", path)
	maps, err := reader.LoadMapsFile(path)
	if err != nil {
		return nil, err
	}
	pterm.Debug.Printf("Loaded maps for %d project code(s)\n", len(maps))
	return maps, nil
}

func readBlob(path, typ string, strict bool) ([]byte, error) {
	s, err := serializer.New(typ)
	if err != nil {
		return nil, err
	}
	pterm.Info.Printf("Read config from %s\n", path)
	file, err := reader.ReadBlobFile(path, s)
	if err != nil {
		return nil, err
	}
	if file.ChecksumErr != nil {
		if strict {
			return nil, fmt.Errorf("%s: %w", path, file.ChecksumErr)
		}
		pterm.Warning.Printf("%s: %v\n", path, file.ChecksumErr)
	}
	return file.Blob, nil
}

func parseProjectCode(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid project code %q", s)
	}
	return byte(n), nil
}

// openEditor decodes the source config. Text sources are applied over
// --base, or over a blank blob for --project.
func openEditor(o *inputOptions, maps models.MapSet) (*editor.Editor, error) {
	if o.typ != textType {
		blob, err := readBlob(o.source(), o.typ, o.strictCRC)
		if err != nil {
			return nil, err
		}
		return editor.Open(maps, blob)
	}

	var ed *editor.Editor
	switch {
	case o.base != "":
		blob, err := readBlob(o.base, o.baseType, o.strictCRC)
		if err != nil {
			return nil, err
		}
		if ed, err = editor.Open(maps, blob); err != nil {
			return nil, err
		}
		if o.project != "" {
			code, err := parseProjectCode(o.project)
			if err != nil {
				return nil, err
			}
			if code != ed.Map().ProjectCode {
				return nil, fmt.Errorf("--project 0x%02X does not match base config %s", code, models.ProjectLabel(ed.Map().ProjectCode))
			}
		}
	case o.project != "":
		code, err := parseProjectCode(o.project)
		if err != nil {
			return nil, err
		}
		def, err := maps.Select(code)
		if err != nil {
			return nil, err
		}
		if ed, err = editor.NewBlank(def); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("text input needs --project or --base to select a map")
	}

	pterm.Info.Printf("Read config from %s\n", o.source())
	lines, err := reader.ReadTextFile(o.source())
	if err != nil {
		return nil, err
	}
	assignments, err := proptext.FromText(lines, ed.Map())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.source(), err)
	}
	if err := ed.ApplyAll(assignments); err != nil {
		return nil, fmt.Errorf("%s: %w", o.source(), err)
	}
	return ed, nil
}

func changed(changes []editor.Change) int {
	n := 0
	for _, c := range changes {
		if c.Old != c.New {
			n++
		}
	}
	return n
}

func runEdit(args []string) error {
	var o inputOptions
	var outType, dst string
	var dryRun, backup bool

	fs := newFlagSet("edit")
	o.register(fs)
	fs.StringVar(&outType, "out-type", "", "destination file type: binary, hex or text (default: --type)")
	fs.StringVar(&dst, "dst", "", "path to destination config file")
	fs.BoolVar(&dryRun, "dry-run", false, "apply assignments but do not write the result")
	fs.BoolVar(&backup, "backup", false, "back up an existing destination before overwriting it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.setup()

	if outType == "" {
		outType = o.typ
	}
	if dst == "" {
		dst = "NewVehicleConfig." + extension(outType)
	}

	maps, err := loadMaps(o.mapPath)
	if err != nil {
		return err
	}
	ed, err := openEditor(&o, maps)
	if err != nil {
		return err
	}
	sourceChanges := len(ed.Changes())

	assignments, err := proptext.FromText(fs.Args(), ed.Map())
	if err != nil {
		return fmt.Errorf("assignment arguments: %w", err)
	}
	if err := ed.ApplyAll(assignments); err != nil {
		return err
	}
	editor.PrintChanges(ed.Changes()[sourceChanges:])

	if changed(ed.Changes()[sourceChanges:]) == 0 && outType == o.typ {
		pterm.Warning.Println("No property changed; nothing to save")
		return nil
	}

	var out []byte
	var lines []string
	if outType == textType {
		if lines, err = ed.Text(); err != nil {
			return err
		}
	} else {
		if out, err = ed.Encode(); err != nil {
			return err
		}
	}

	if dryRun {
		pterm.Warning.Printf("DRY RUN - %s not written\n", dst)
		if out != nil {
			pterm.Info.Printf("New config BLAKE3: %s\n", editor.Fingerprint(out))
		}
		return nil
	}

	if backup {
		if _, err := os.Stat(dst); err == nil {
			name, err := editor.CreateBackup(dst)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
			pterm.Success.Printf("Backup created: %s\n", name)
		}
	}

	pterm.Info.Printf("Save updated config to %s\n", dst)
	if outType == textType {
		err = editor.WriteTextFile(dst, lines)
	} else {
		var s serializer.Serializer
		if s, err = serializer.New(outType); err != nil {
			return err
		}
		err = editor.WriteBlobFile(dst, s, out)
	}
	if err != nil {
		return err
	}

	if out != nil {
		pterm.Debug.Printf("New config BLAKE3: %s\n", editor.Fingerprint(out))
	}
	pterm.Success.Printf("%d property(s) updated\n", changed(ed.Changes()[sourceChanges:]))
	return nil
}

func runShow(args []string) error {
	var o inputOptions
	fs := newFlagSet("show")
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.setup()

	maps, err := loadMaps(o.mapPath)
	if err != nil {
		return err
	}
	ed, err := openEditor(&o, maps)
	if err != nil {
		return err
	}
	blob, err := ed.Encode()
	if err != nil {
		return err
	}

	pterm.Println()
	renderer.RenderProperties(ed.Map(), ed.Table(), o.source(), editor.Fingerprint(blob))
	return nil
}

func runDump(args []string) error {
	var o inputOptions
	var dst string
	fs := newFlagSet("dump")
	o.register(fs)
	fs.StringVar(&dst, "dst", "", "write property text here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.setup()

	maps, err := loadMaps(o.mapPath)
	if err != nil {
		return err
	}
	ed, err := openEditor(&o, maps)
	if err != nil {
		return err
	}
	lines, err := ed.Text()
	if err != nil {
		return err
	}

	if dst == "" {
		return proptext.WriteLines(os.Stdout, lines)
	}
	if err := editor.WriteTextFile(dst, lines); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %d properties to %s\n", len(lines), dst)
	return nil
}

func runDiff(args []string) error {
	var o inputOptions
	fs := newFlagSet("diff")
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.setup()

	if fs.NArg() != 2 {
		return fmt.Errorf("diff needs exactly two config files, got %d", fs.NArg())
	}
	if o.typ == textType {
		return fmt.Errorf("diff compares binary or hex configs")
	}
	file1, file2 := fs.Arg(0), fs.Arg(1)

	maps, err := loadMaps(o.mapPath)
	if err != nil {
		return err
	}
	left, err := readBlob(file1, o.typ, o.strictCRC)
	if err != nil {
		return err
	}
	right, err := readBlob(file2, o.typ, o.strictCRC)
	if err != nil {
		return err
	}

	res, err := compare.CompareBlobs(maps, left, right)
	if err != nil {
		return err
	}
	pterm.Println()
	renderer.RenderComparison(res, file1, file2)
	return nil
}

func runExport(args []string) error {
	var o inputOptions
	var csvPath string
	fs := newFlagSet("export")
	o.register(fs)
	fs.StringVar(&csvPath, "csv", "VehicleConfig.csv", "path of the CSV file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.setup()

	maps, err := loadMaps(o.mapPath)
	if err != nil {
		return err
	}
	ed, err := openEditor(&o, maps)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Exporting properties to CSV...")
	if err := export.ExportCSV(csvPath, ed.Map(), ed.Table()); err != nil {
		spinner.Fail("Export failed")
		return err
	}
	spinner.Success(fmt.Sprintf("Properties exported to %s", csvPath))
	return nil
}

func runMaps(args []string) error {
	var mapPath string
	fs := newFlagSet("maps")
	fs.StringVar(&mapPath, "map", "map.json", "path to JSON or YAML file with mapping of properties to config bits")
	if err := fs.Parse(args); err != nil {
		return err
	}

	maps, err := loadMaps(mapPath)
	if err != nil {
		return err
	}
	pterm.Println()
	renderer.ListAvailableMaps(maps, mapPath)
	return nil
}

func runCoverage(args []string) error {
	var o inputOptions
	fs := newFlagSet("coverage")
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	o.setup()

	maps, err := loadMaps(o.mapPath)
	if err != nil {
		return err
	}

	if o.project != "" && o.src == "" {
		code, err := parseProjectCode(o.project)
		if err != nil {
			return err
		}
		def, err := maps.Select(code)
		if err != nil {
			return err
		}
		renderer.RenderCoverage(def, coverage.Scan(def), nil)
		return nil
	}

	ed, err := openEditor(&o, maps)
	if err != nil {
		return err
	}
	renderer.RenderCoverage(ed.Map(), coverage.Scan(ed.Map()), ed.Base())
	return nil
}
