package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"
)

type command struct {
	summary string
	run     func(args []string) error
}

var commands = map[string]command{
	"edit":     {"apply property assignments and write a new config (default)", runEdit},
	"show":     {"display every property of a config", runShow},
	"dump":     {"print a config as property text", runDump},
	"diff":     {"compare the properties of two configs", runDiff},
	"export":   {"export the properties of a config to CSV", runExport},
	"maps":     {"list the maps in a map file", runMaps},
	"coverage": {"list the bits a map does not describe", runCoverage},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(args []string) error {
	name := "edit"
	if len(args) > 0 {
		if args[0] == "help" {
			usage()
			return nil
		}
		if _, ok := commands[args[0]]; ok {
			name, args = args[0], args[1:]
		}
	}
	return commands[name].run(args)
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: vcedit [command] [flags] [property:bitstring | property=value ...]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-9s %s\n", name, commands[name].summary)
	}
	b.WriteString("\nRun 'vcedit <command> --help' for the flags of a command.")
	pterm.Println(b.String())
}
