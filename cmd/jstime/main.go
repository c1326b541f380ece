// Command jstime runs a JavaScript file with this module's runtime: a
// single script runs as a classic script, a .mjs file runs as an ES module.
// Grounded on _examples/original_source/cli's observable argument contract
// (-h, [filename]) and exit-code behavior (test_cli.rs), translated to a
// hand-written loop over the arguments rather than the Rust original's
// argument parser.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jstime-go/jstime"
)

const usage = `jstime [OPTIONS] [filename]

Options:
  -h, --help     print this help text and exit
  --warmup N     run N throwaway passes before the real run
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var filename string
	var warmup uint32

	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "-h" || a == "--help":
			fmt.Print(usage)
			return 0
		case a == "--warmup":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "jstime: --warmup requires a value")
				return 1
			}
			i++
			var n int
			if _, err := fmt.Sscanf(args[i], "%d", &n); err != nil || n < 0 {
				fmt.Fprintf(os.Stderr, "jstime: invalid --warmup value %q\n", args[i])
				return 1
			}
			warmup = uint32(n)
		default:
			filename = a
		}
	}

	if filename == "" {
		fmt.Print(usage)
		return 0
	}

	rt, err := jstime.New(jstime.Options{Warmup: warmup}, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "jstime: %v\n", err)
		return 1
	}
	defer rt.Close()

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jstime: %v\n", err)
		return 1
	}

	if strings.HasSuffix(filename, ".mjs") {
		if _, err := rt.Import(filename); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	if _, err := rt.RunScript(string(source), filename); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
