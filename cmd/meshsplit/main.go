// meshsplit splits large glTF meshes into fragments that fit a vertex budget.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/meshsplit/internal/config"
	"github.com/Faultbox/meshsplit/internal/logger"
	"github.com/Faultbox/meshsplit/internal/meshio"
	"github.com/Faultbox/meshsplit/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "split":
		cmdSplit(args)
	case "info":
		cmdInfo(args)
	case "synth":
		cmdSynth(args)
	case "config":
		cmdConfig(args)
	case "report":
		cmdReport(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshsplit - split large meshes into vertex-bounded fragments

Usage:
  meshsplit <command> [options]

Commands:
  split [options] <file.glb>     Split a mesh and write fragments + report
  info <file.glb>                Show mesh statistics
  synth [options] <out.glb>      Generate a test mesh
  config [options]               Print the effective configuration
  report <dir|report.yaml>       Summarize a previous split

Shared options:
  -config <path>   Config file (default ./meshsplit.yaml or user config dir)
  -budget <n>      Soft vertex budget per group
  -ceiling <n>     Hard vertex ceiling per fragment
  -strategy <s>    material or grid
  -workers <n>     Fragments processed in parallel
  -out <dir>       Output directory
  -debug           Debug logging

Examples:
  meshsplit synth -cols 300 -rows 250 -materials 3 terrain.glb
  meshsplit split -budget 12000 -out ./fragments terrain.glb
  meshsplit config -strategy grid`)
}

// loadConfig parses args into fs with the shared flags registered, then
// loads the configuration and starts the logger.
func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdSplit(args []string) {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	noGLB := fs.Bool("no-glb", false, "Skip writing fragment GLB files")
	cfg := loadConfig(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshsplit split [options] <file.glb>")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := meshio.Load(fs.Arg(0))
	if err != nil {
		logger.Error("failed to load mesh", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("loaded",
		zap.String("mesh", src.Name),
		zap.Int("vertices", src.VertexCount()),
		zap.Int("faces", src.FaceCount()),
		zap.Int("materials", len(src.Materials)))
	logger.Sugar.Debugf("Config: %+v", cfg)

	res, err := pipeline.Run(ctx, src, pipeline.FromConfig(cfg), logger.Named("pipeline"))
	if err != nil {
		logger.Error("split failed", zap.Error(err))
		os.Exit(1)
	}

	written, err := meshio.WriteResult(cfg.Output.Dir, res, cfg.Output.WriteGLB && !*noGLB, cfg.Output.WriteReport)
	if err != nil {
		logger.Error("failed to write output", zap.Error(err))
		os.Exit(1)
	}

	printReport(res.Report())
	fmt.Printf("Wrote %d files to %s\n", len(written), meshio.OutputDir(cfg.Output.Dir, res.Source.Name))

	if warnings := multierr.Errors(res.Warnings); len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d warnings:\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  %v\n", w)
		}
		if pipeline.IsCeilingWarning(res.Warnings) {
			os.Exit(2)
		}
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.String("save", "", "Write the effective config to this path")
	cfg := loadConfig(fs, args)
	defer logger.Sync()

	if *save != "" {
		if err := cfg.SaveTo(*save); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Saved: %s\n", *save)
		return
	}
	if err := cfg.Write(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshsplit report <dir|report.yaml>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, meshio.ReportFile)
	}

	rep, err := meshio.ReadReport(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printReport(rep)
	fmt.Printf("Elapsed: %s\n", rep.Elapsed)
	for _, w := range rep.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}

// printReport prints the source summary and one line per fragment.
func printReport(rep *pipeline.Report) {
	src := rep.Source
	fmt.Printf("Source:    %s (%d vertices, %d faces)\n", src.Name, src.Vertices, src.Faces)
	fmt.Printf("Groups:    %d (%d without faces)\n", src.Groups, src.EmptyGroups)
	fmt.Printf("Dropped:   %d boundary faces\n", src.BoundaryFaces)
	fmt.Printf("Fragments: %d\n", len(rep.Fragments))
	fmt.Println()
	fmt.Printf("  %-4s %-24s %8s %8s %5s %5s %6s\n", "#", "name", "verts", "faces", "bis", "dec", "conf")
	for _, f := range rep.Fragments {
		fmt.Printf("  %-4d %-24s %8d %8d %5d %5v %5.0f%%\n",
			f.Ordinal, meshio.FragmentName(src.Name, f.Ordinal),
			f.Final.Vertices, f.Final.Faces, f.Resolve.Bisections, f.Resolve.Decimated,
			100*f.Transfer.Confidence)
	}
	fmt.Println()
}
