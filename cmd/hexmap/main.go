// Command hexmap generates hex terrain maps from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/openhexmap/internal/client"
	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

const usage = `Usage: hexmap <command> [flags] [args]

Commands:
  generate [width] [height] [seed]   Generate a map (default 15x10, random seed)
  test                               Print the 15x10 seed 42 preview map
  terrains                           Print the terrain set and compatibility weights

Run "hexmap <command> -h" for command flags.
`

var errUsage = errors.New("usage")

func main() {
	logger.SetOutput(os.Stderr, "text", "warn")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(args[1:], stdout, stderr)
	case "test":
		err = runTest(args[1:], stdout, stderr)
	case "terrains":
		err = runTerrains(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// commonFlags are shared by every command.
type commonFlags struct {
	terrains string
	format   string
	out      string
	verbose  bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	c := &commonFlags{}
	fs.StringVar(&c.terrains, "terrains", "", "Path to terrains YAML file (default: built-in terrains)")
	fs.StringVar(&c.format, "format", "ascii", "Output format: ascii, json or yaml")
	fs.StringVar(&c.out, "out", "", "Output file (empty for stdout)")
	fs.BoolVar(&c.verbose, "v", false, "Log generation details to stderr")
	return fs, c
}

func (c *commonFlags) palette() (*terrain.Palette, error) {
	if c.verbose {
		logger.SetOutput(os.Stderr, "text", "debug")
	}
	if c.terrains == "" {
		return terrain.DefaultPalette(), nil
	}
	return terrain.LoadPalette(c.terrains)
}

// writer returns the output destination and a func that closes it.
func (c *commonFlags) writer(stdout io.Writer) (io.Writer, func() error, error) {
	if c.out == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(c.out)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runGenerate(args []string, stdout, stderr io.Writer) error {
	fs, common := newFlagSet("generate", stderr)
	showStats := fs.Bool("stats", false, "Append terrain counts and region statistics (ascii only)")
	remote := fs.String("remote", "", "Generate on a running server, e.g. ws://localhost:8080/ws")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := hexmap.Request{Width: 15, Height: 10}
	positional := fs.Args()
	if len(positional) > 3 {
		fmt.Fprintf(stderr, "generate takes at most 3 arguments\n\n%s", usage)
		return errUsage
	}
	for i, a := range positional {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid argument %q: %w", a, err)
		}
		switch i {
		case 0:
			req.Width = int(n)
		case 1:
			req.Height = int(n)
		case 2:
			seed := n
			req.Seed = &seed
		}
	}

	palette, err := common.palette()
	if err != nil {
		return err
	}

	var res hexmap.Result
	if *remote != "" {
		res, err = generateRemote(*remote, req)
		if err != nil {
			return err
		}
	} else {
		res = hexmap.Generate(palette, req)
	}
	if !res.Success {
		return errors.New(res.Error)
	}

	w, closeOut, err := common.writer(stdout)
	if err != nil {
		return err
	}

	switch common.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(res)
		if err == nil {
			err = enc.Close()
		}
	case "ascii":
		err = writeASCII(w, res, palette, *showStats)
	default:
		err = fmt.Errorf("unknown format %q", common.format)
	}

	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

func generateRemote(url string, req hexmap.Request) (hexmap.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()

	c, err := client.Dial(ctx, url, nil)
	if err != nil {
		return hexmap.Result{}, err
	}
	defer c.Close()

	logger.Debug("Requesting map from server", "url", url, "width", req.Width, "height", req.Height)
	return c.Generate(ctx, req)
}

func writeASCII(w io.Writer, res hexmap.Result, palette *terrain.Palette, showStats bool) error {
	grid, err := res.Grid()
	if err != nil {
		return err
	}

	fmt.Fprint(w, hexmap.RenderASCII(grid, palette))
	if res.Seed != nil {
		fmt.Fprintf(w, "Seed: %d\n", *res.Seed)
	}
	fmt.Fprint(w, hexmap.Legend(palette))

	if showStats {
		writeStats(w, grid)
	}
	return nil
}

// writeStats prints per-terrain cell counts and the connected-region summary.
func writeStats(w io.Writer, grid *hexmap.Grid) {
	counts := make(map[string]int)
	for _, row := range grid.Rows() {
		for _, t := range row {
			counts[t]++
		}
	}

	names := make([]string, 0, len(counts))
	for t := range counts {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	total := grid.Width() * grid.Height()
	fmt.Fprintln(w, "Terrain counts:")
	for _, t := range names {
		fmt.Fprintf(w, "  %-12s %4d (%5.1f%%)\n", t, counts[t], 100*float64(counts[t])/float64(total))
	}

	regions := hexmap.Components(grid)
	largest := 0
	for _, r := range regions {
		if r.Size() > largest {
			largest = r.Size()
		}
	}
	fmt.Fprintf(w, "Regions: %d total, %d with %d+ cells, largest %d\n",
		len(regions), hexmap.CountSizable(regions), hexmap.MinRegionSize, largest)
}

func runTest(args []string, stdout, stderr io.Writer) error {
	fs, common := newFlagSet("test", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	palette, err := common.palette()
	if err != nil {
		return err
	}

	out, err := hexmap.TestMap(palette)
	if err != nil {
		return err
	}

	w, closeOut, err := common.writer(stdout)
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	fmt.Fprint(w, hexmap.Legend(palette))
	return closeOut()
}

func runTerrains(args []string, stdout, stderr io.Writer) error {
	fs, common := newFlagSet("terrains", stderr)
	fs.Lookup("format").DefValue = "yaml"
	common.format = "yaml"
	if err := fs.Parse(args); err != nil {
		return err
	}

	palette, err := common.palette()
	if err != nil {
		return err
	}

	w, closeOut, err := common.writer(stdout)
	if err != nil {
		return err
	}

	file := terrain.PaletteFile{Terrains: palette.Definitions()}
	switch common.format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(file)
		if err == nil {
			err = enc.Close()
		}
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(map[string]any{
			"terrains":             palette.Terrains(),
			"compatibility_matrix": palette.Matrix(),
		})
	case "ascii":
		fmt.Fprint(w, hexmap.Legend(palette))
	default:
		err = fmt.Errorf("unknown format %q", common.format)
	}

	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}
