package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Faultbox/meshcodec/internal/config"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func TestExportPath(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name   string
		outDir string
		asJSON bool
		want   string
	}{
		{"next to input", "", false, filepath.Join("models", "ship.glb")},
		{"json next to input", "", true, filepath.Join("models", "ship.gltf")},
		{"configured dir", "out", false, filepath.Join("out", "ship.glb")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Export.OutDir = tt.outDir
			got := exportPath(cfg, filepath.Join("models", "ship.3d"), "ship", tt.asJSON)
			if got != tt.want {
				t.Errorf("exportPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttributeList(t *testing.T) {
	if got := attributeList(&mesh.Mesh{Positions: make([]float32, 9)}); got != "positions" {
		t.Errorf("got %q", got)
	}
	if got := attributeList(mesh.Sphere(4, 1)); got != "positions,indices,normals,uvs" {
		t.Errorf("got %q", got)
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshtool.yaml")

	cfg := config.Default()
	cfg.Sphere.Radius = 2

	got, err := initConfig(cfg, path, false)
	if err != nil {
		t.Fatalf("initConfig failed: %v", err)
	}
	if got != path {
		t.Errorf("initConfig wrote %q, want %q", got, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	if !strings.Contains(string(data), "radius: 2") {
		t.Errorf("expected radius in written config, got:\n%s", data)
	}

	if _, err := initConfig(cfg, path, false); err == nil {
		t.Error("expected error when the file already exists")
	}
	if _, err := initConfig(cfg, path, true); err != nil {
		t.Errorf("expected -force to overwrite, got %v", err)
	}
}

func TestInitConfigDefaultPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("config directory is only redirectable through XDG_CONFIG_HOME on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := initConfig(config.Default(), "", false)
	if err != nil {
		t.Fatalf("initConfig failed: %v", err)
	}
	if got != config.DefaultPath() {
		t.Errorf("initConfig wrote %q, want %q", got, config.DefaultPath())
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("expected config at %s: %v", got, err)
	}
}
