// meshsimplify is a CLI utility for reducing triangle meshes stored as OBJ.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/qem/internal/config"
	"github.com/Faultbox/qem/internal/logger"
	"github.com/Faultbox/qem/pkg/math"
	"github.com/Faultbox/qem/pkg/obj"
	"github.com/Faultbox/qem/pkg/qem"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "simplify", "s":
		err = cmdSimplify(args)
	case "info":
		err = cmdInfo(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshsimplify - quadric edge-collapse mesh simplifier

Usage:
  meshsimplify <command> [options]

Commands:
  simplify [options] <in.obj> <out.obj>  Reduce a mesh
  info <in.obj>                          Show mesh statistics
  config [options] [path]                Print the effective config, or write it to path

Examples:
  meshsimplify simplify -target 5000 bunny.obj bunny_5k.obj
  meshsimplify simplify -ratio 0.1 -preserve-border terrain.obj terrain_lo.obj
  meshsimplify info bunny.obj
  meshsimplify config -target 5000 ~/.config/qem/config.yaml`)
}

func cmdSimplify(args []string) error {
	fs := flag.NewFlagSet("simplify", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshsimplify simplify [options] <in.obj> <out.obj>")
		os.Exit(1)
	}
	in, out := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.LoggerOptions()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: %+v", cfg.Simplify)

	mesh, err := obj.ReadFile(in)
	if err != nil {
		return err
	}
	logger.Info("mesh loaded",
		zap.String("path", in),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", len(mesh.Triangles)))

	opts := cfg.Simplify.Resolve(len(mesh.Vertices))
	opts.Logger = logger.Log
	logger.Debug("resolved target",
		zap.Int("target", opts.TargetCount),
		zap.Float64("ratio", cfg.Simplify.TargetRatio))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := qem.Simplify(ctx, mesh.Vertices, mesh.Triangles, opts)
	if err != nil {
		logger.Error("simplification failed", zap.String("path", in), zap.Error(err))
		return fmt.Errorf("simplify %s: %w", in, err)
	}
	st := res.Stats
	logger.Info("mesh simplified",
		zap.Int("target", opts.TargetCount),
		zap.Int("vertices", st.OutputVertices),
		zap.Int("triangles", st.OutputTriangles),
		zap.Int("iterations", st.Iterations),
		zap.Int("collapses", st.Collapses+st.CleanupCollapses),
		zap.Stringer("reason", st.Reason),
		zap.Duration("elapsed", time.Since(start)))
	if st.DroppedTriangles > 0 {
		logger.Warn("dropped degenerate input triangles", zap.Int("count", st.DroppedTriangles))
	}
	if st.Reason == qem.StopCancelled {
		logger.Warn("interrupted, writing the mesh reached so far")
	}

	err = obj.WriteFile(out, &obj.Mesh{
		Vertices:  res.Vertices,
		Triangles: res.Triangles,
		Normals:   res.Normals,
	})
	if err != nil {
		return err
	}
	logger.Info("mesh written", zap.String("path", out))
	return nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshsimplify info <in.obj>")
		os.Exit(1)
	}

	mesh, err := obj.ReadFile(args[0])
	if err != nil {
		return err
	}
	m, err := qem.Build(mesh.Vertices, mesh.Triangles)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	border := 0
	for v := 0; v < m.NumVertices(); v++ {
		if !m.VertexDeleted(v) && m.Border(v) {
			border++
		}
	}
	b := math.BoundsOf(mesh.Vertices)
	size := b.Size()
	center := b.Center()

	fmt.Printf("Mesh:      %s\n", args[0])
	fmt.Printf("Vertices:  %d (%d referenced)\n", len(mesh.Vertices), m.LiveVertices())
	fmt.Printf("Triangles: %d (%d dropped)\n", len(mesh.Triangles), m.Dropped())
	fmt.Printf("Border:    %d vertices\n", border)
	fmt.Printf("Bounds:    %.4g x %.4g x %.4g (diagonal %.4g)\n", size.X, size.Y, size.Z, b.Diagonal())
	fmt.Printf("Center:    %.4g, %.4g, %.4g\n", center.X, center.Y, center.Z)
	return nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	save := fs.Bool("save", false, "Write to the user config directory")
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	switch {
	case fs.NArg() > 0 && *save:
		return errors.New("-save and a path are mutually exclusive")
	case fs.NArg() > 0:
		if err := cfg.SaveTo(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", fs.Arg(0))
	case *save:
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	}
	return nil
}
