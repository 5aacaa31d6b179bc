// Command pcbmag generates printable PCB magazine frames and bones.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/soypat/pcbmag/export"
	"github.com/soypat/pcbmag/internal/config"
	"github.com/soypat/pcbmag/internal/job"
	"github.com/soypat/pcbmag/internal/tui"
	"github.com/soypat/pcbmag/internal/watch"
)

// CLI holds the command line flags. Flags that are given explicitly take
// precedence over the --config file.
type CLI struct {
	Component string  `help:"Part to build: frame, bone or assembly." default:"assembly"`
	A         float64 `name:"a" short:"a" help:"Inner slot width along X (mm)." default:"90"`
	B         float64 `name:"b" short:"b" help:"Bone tip to tip length, the magazine height (mm)." default:"120"`
	C         float64 `name:"c" short:"c" help:"Slot width, the PCB thickness (mm)." default:"1.6"`
	D         float64 `name:"d" short:"d" help:"Material between slots (mm)." default:"10"`
	N         float64 `name:"n" short:"n" help:"Number of slots." default:"10"`
	Fmt       string  `help:"Export format: stl or step." default:"stl"`
	Out       string  `help:"Output file path." default:"model.stl"`
	NoGUI     bool    `name:"nogui" help:"Export directly instead of opening the editor."`

	Config   string `help:"YAML job file."`
	ASCII    bool   `name:"ascii" help:"Write ASCII instead of binary STL."`
	Material string `help:"Compensate for the shrinkage of a print material (pla)."`
	Preview  string `help:"Also render a PNG preview to this path."`
	Drawing  string `help:"Also plot the part profiles to this SVG or PNG path."`
	Watch    bool   `help:"Rebuild whenever the --config file changes."`
	Inspect  string `help:"Print the bodies of an STL or STEP file and exit."`
	Verbose  bool   `short:"v" help:"Enable verbose logging."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exit := -1
	parser, err := kong.New(&cli,
		kong.Name("pcbmag"),
		kong.Description("Generate printable PCB magazine frames and dovetail bones."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exit = code }),
	)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if exit >= 0 {
		return exit
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cli.Inspect != "" {
		rep, err := export.Inspect(cli.Inspect)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		fmt.Fprint(stdout, rep.String())
		return 0
	}

	set := make(map[string]bool)
	for _, f := range kctx.Flags() {
		if f.Set {
			set[f.Name] = true
		}
	}
	load := func() (config.Job, error) {
		file := config.Default()
		if cli.Config != "" {
			f, err := config.Load(cli.Config)
			if err != nil {
				return config.Job{}, err
			}
			file = f
		}
		cli.apply(&file, set)
		return file.Resolve()
	}

	j, err := load()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if cli.Watch && cli.Config == "" {
		fmt.Fprintln(stderr, "error: --watch needs --config")
		return 1
	}
	if !cli.NoGUI && !cli.Watch {
		if err := tui.Run(j, cli.Config); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	}

	build := func(j config.Job) error {
		log.Debug("Building", "component", j.Mode, "params", j.Params.String(), "format", j.Options.Format)
		res, err := job.Run(j)
		if err != nil {
			return err
		}
		log.Info("Build complete", "solids", res.Solids, "size", res.Size())
		fmt.Fprintln(stdout, "Exported to:", res.Path)
		return nil
	}
	if err := build(j); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if !cli.Watch {
		return 0
	}
	w := watch.Watcher{
		File:     cli.Config,
		Debounce: watch.DefaultDebounce,
		Logger:   log,
		Func: func(context.Context) error {
			j, err := load()
			if err != nil {
				return err
			}
			return build(j)
		},
	}
	if err := w.Run(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// apply copies the explicitly given flags over f.
func (c *CLI) apply(f *config.File, set map[string]bool) {
	if set["component"] {
		f.Component = c.Component
	}
	if set["a"] {
		f.Params.A = c.A
	}
	if set["b"] {
		f.Params.B = c.B
	}
	if set["c"] {
		f.Params.C = c.C
	}
	if set["d"] {
		f.Params.D = c.D
	}
	if set["n"] {
		f.Params.N = c.N
	}
	if set["fmt"] {
		f.Output.Format = c.Fmt
		// Without --out the path follows the format.
		if format, err := export.ParseFormat(c.Fmt); err == nil && !set["out"] {
			f.Output.Path = export.ReplaceExt(f.Output.Path, format)
		}
	}
	if set["out"] {
		f.Output.Path = c.Out
	}
	if set["material"] {
		f.Material = c.Material
	}
	if set["ascii"] {
		f.Output.ASCII = c.ASCII
	}
	if set["preview"] {
		f.Output.Preview = c.Preview
	}
	if set["drawing"] {
		f.Output.Drawing = c.Drawing
	}
}
