// meshtool is a CLI utility for inspecting and converting .3d mesh files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/internal/config"
	"github.com/Faultbox/meshcodec/internal/logger"
	"github.com/Faultbox/meshcodec/internal/watch"
	"github.com/Faultbox/meshcodec/pkg/export"
	"github.com/Faultbox/meshcodec/pkg/formats"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	var cmdErr error
	switch command {
	case "info":
		cmdErr = cmdInfo(args)
	case "upgrade":
		cmdErr = cmdUpgrade(cfg, args)
	case "export":
		cmdErr = cmdExport(cfg, args)
	case "sphere":
		cmdErr = cmdSphere(cfg, args)
	case "watch":
		cmdErr = cmdWatch(cfg, args)
	case "config":
		cmdErr = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Error(command+" failed", zap.Error(cmdErr))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - .3d mesh file utility

Usage:
  meshtool [global options] <command> [options]

Global options:
  -config <file>    Config file (default: $MESHTOOL_CONFIG, ./meshtool.yaml,
                    then the user config directory)
  -debug            Debug logging
  -log-file <file>  Also log to a rotated file
  -out-dir <dir>    Directory for exported files
  -no-backup        Do not keep originals of upgraded files

Commands:
  info <file.3d>                     Show revision, meshes and bounds
  upgrade <file.3d> [output]         Rewrite as the current revision
  export <file.3d> [output]          Export to glTF (.glb or .gltf)
  sphere <output.3d>                 Generate a UV sphere
  watch [dir...]                     Upgrade legacy files as they appear
  config path                        Show which config file is in effect
  config init [-force] [file]        Write the current settings as YAML

Examples:
  meshtool info model.3d
  meshtool upgrade old.3d new.3d
  meshtool export -json model.3d
  meshtool sphere -n 32 -r 0.5 ball.3d
  meshtool watch ./assets
  meshtool -out-dir gltf config init`)
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshtool info <file.3d>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	meshes, revision, err := formats.ParseThreeDRevision(data)
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Size:     %d bytes\n", len(data))
	fmt.Printf("Revision: %s\n", revision)
	fmt.Printf("Meshes:   %d\n", len(meshes))

	for i := range meshes {
		m := &meshes[i]
		fmt.Println()
		fmt.Printf("  [%d] vertices=%d triangles=%d attributes=%s\n",
			i, m.VertexCount(), m.TriangleCount(), attributeList(m))
		fmt.Printf("      bounds %s\n", m.Bounds())
		if err := m.Validate(); err != nil {
			fmt.Printf("      warning: %v\n", err)
		}
	}

	return nil
}

func attributeList(m *mesh.Mesh) string {
	attrs := []string{"positions"}
	if m.HasIndices() {
		attrs = append(attrs, "indices")
	}
	if m.HasNormals() {
		attrs = append(attrs, "normals")
	}
	if m.HasUVs() {
		attrs = append(attrs, "uvs")
	}
	return strings.Join(attrs, ",")
}

func cmdUpgrade(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool upgrade <file.3d> [output]")
	}
	input := fs.Arg(0)

	// In place: same rules as the watcher.
	if fs.NArg() < 2 {
		suffix := ""
		if cfg.Upgrade.Backup {
			suffix = cfg.Upgrade.BackupSuffix
		}
		res, err := watch.UpgradeFile(input, suffix)
		if err != nil {
			return err
		}
		if !res.Upgraded {
			fmt.Printf("%s: already revision %s\n", input, res.Revision)
			return nil
		}
		fmt.Printf("Upgraded: %s (revision %s, %d meshes)\n", input, res.Revision, res.Meshes)
		if res.Backup != "" {
			fmt.Printf("Backup:   %s\n", res.Backup)
		}
		return nil
	}

	meshes, err := formats.ParseThreeDFile(input)
	if err != nil {
		return err
	}
	output := fs.Arg(1)
	if err := formats.WriteThreeDFile(output, meshes); err != nil {
		return err
	}
	fmt.Printf("Wrote: %s (%d meshes)\n", output, len(meshes))
	return nil
}

func cmdExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	asJSON := fs.Bool("json", !cfg.Export.Binary, "Write .gltf JSON instead of .glb")
	normals := fs.Bool("normals", false, "Generate normals for meshes without them")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool export <file.3d> [output]")
	}
	input := fs.Arg(0)

	meshes, err := formats.ParseThreeDFile(input)
	if err != nil {
		return err
	}

	if *normals {
		for i := range meshes {
			if !meshes[i].HasNormals() {
				meshes[i].ComputeNormals()
				logger.Debug("generated normals", zap.Int("mesh", i))
			}
		}
	}

	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	output := exportPath(cfg, input, name, *asJSON)
	if fs.NArg() > 1 {
		output = fs.Arg(1)
	}

	doc, err := export.GLTF(meshes, name)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	if err := export.SaveGLTF(output, doc); err != nil {
		return err
	}

	fmt.Printf("Exported: %s (%d meshes)\n", output, len(meshes))
	return nil
}

// exportPath picks the default output for an export: the configured
// output directory, or next to the input.
func exportPath(cfg *config.Config, input, name string, asJSON bool) string {
	ext := ".glb"
	if asJSON {
		ext = ".gltf"
	}
	dir := cfg.Export.OutDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name+ext)
}

func cmdSphere(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sphere", flag.ExitOnError)
	subdivisions := fs.Int("n", cfg.Sphere.Subdivisions, "Rings from pole to pole")
	radius := fs.Float64("r", float64(cfg.Sphere.Radius), "Sphere radius")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool sphere [-n subdivisions] [-r radius] <output.3d>")
	}
	output := fs.Arg(0)

	m := mesh.Sphere(*subdivisions, float32(*radius))
	if err := formats.WriteThreeDFile(output, []mesh.Mesh{*m}); err != nil {
		return err
	}

	fmt.Printf("Wrote: %s (%d vertices, %d triangles)\n", output, m.VertexCount(), m.TriangleCount())
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	dirs := cfg.Watch.Dirs
	if len(args) > 0 {
		dirs = args
	}

	suffix := ""
	if cfg.Upgrade.Backup {
		suffix = cfg.Upgrade.BackupSuffix
	}

	w, err := watch.New(watch.Options{
		Dirs:         dirs,
		Extensions:   cfg.Watch.Extensions,
		Recursive:    cfg.Watch.Recursive,
		Debounce:     cfg.Watch.Debounce,
		BackupSuffix: suffix,
	}, logger.Named("watch"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil {
		return err
	}
	logger.Info("watcher stopped")
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshtool config <path|init> [options]")
	}

	switch args[0] {
	case "path":
		path, source := config.Locate()
		if path == "" {
			fmt.Printf("No config file, using %s (would be read from %s)\n", source, config.DefaultPath())
			return nil
		}
		fmt.Printf("%s (from %s)\n", path, source)
		return nil
	case "init":
		fs := flag.NewFlagSet("config init", flag.ExitOnError)
		force := fs.Bool("force", false, "Overwrite an existing file")
		fs.Parse(args[1:])

		path, err := initConfig(cfg, fs.Arg(0), *force)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote: %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

// initConfig writes cfg to path, or to the user config directory when path
// is empty. An existing file is kept unless force is set.
func initConfig(cfg *config.Config, path string, force bool) (string, error) {
	target := path
	if target == "" {
		target = config.DefaultPath()
	}
	if !force {
		if _, err := os.Stat(target); err == nil {
			return "", fmt.Errorf("%s already exists (use -force to overwrite)", target)
		}
	}

	if path == "" {
		return target, cfg.Save()
	}
	return target, cfg.SaveTo(path)
}
