package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func testMeshes() []mesh.Mesh {
	return []mesh.Mesh{
		{
			Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Indices:   []uint32{0, 1, 2},
			Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		},
		{
			Positions: []float32{0, 0, 0, 0, 0, 1, 1, 0, 0},
			UVs:       []float32{0, 0, 0, 1, 1, 0},
		},
	}
}

func TestGLTF_Structure(t *testing.T) {
	doc, err := GLTF(testMeshes(), "model")
	if err != nil {
		t.Fatalf("GLTF failed: %v", err)
	}

	if len(doc.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(doc.Meshes))
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(doc.Nodes))
	}
	if len(doc.Scenes[0].Nodes) != 2 {
		t.Errorf("expected 2 scene nodes, got %d", len(doc.Scenes[0].Nodes))
	}
	if doc.Meshes[0].Name != "model_0" || doc.Meshes[1].Name != "model_1" {
		t.Errorf("unexpected mesh names %q, %q", doc.Meshes[0].Name, doc.Meshes[1].Name)
	}

	first := doc.Meshes[0].Primitives[0]
	if first.Indices == nil {
		t.Error("indexed mesh should have an indices accessor")
	}
	if _, ok := first.Attributes["NORMAL"]; !ok {
		t.Error("expected NORMAL attribute on first mesh")
	}
	if _, ok := first.Attributes["TEXCOORD_0"]; ok {
		t.Error("unexpected TEXCOORD_0 attribute on first mesh")
	}

	second := doc.Meshes[1].Primitives[0]
	if second.Indices != nil {
		t.Error("non-indexed mesh should not have an indices accessor")
	}
	if _, ok := second.Attributes["TEXCOORD_0"]; !ok {
		t.Error("expected TEXCOORD_0 attribute on second mesh")
	}
	if _, ok := second.Attributes["NORMAL"]; ok {
		t.Error("unexpected NORMAL attribute on second mesh")
	}

	for i, m := range doc.Meshes {
		pos := doc.Accessors[m.Primitives[0].Attributes["POSITION"]]
		if pos.Count != 3 {
			t.Errorf("mesh %d: POSITION count = %d, want 3", i, pos.Count)
		}
	}
}

func TestGLTF_InvalidMesh(t *testing.T) {
	meshes := []mesh.Mesh{{Positions: []float32{0, 0, 0}, Indices: []uint32{0, 1, 2}}}

	_, err := GLTF(meshes, "broken")
	if !errors.Is(err, mesh.ErrInvalidMesh) {
		t.Errorf("expected ErrInvalidMesh, got %v", err)
	}
}

func TestWriteGLTF_Binary(t *testing.T) {
	doc, err := GLTF(testMeshes(), "model")
	if err != nil {
		t.Fatalf("GLTF failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteGLTF(&buf, doc, true); err != nil {
		t.Fatalf("WriteGLTF failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Errorf("GLB output should start with glTF magic, got %q", buf.Bytes()[:4])
	}
}

func TestWriteGLTF_JSONDecodes(t *testing.T) {
	doc, err := GLTF(testMeshes(), "model")
	if err != nil {
		t.Fatalf("GLTF failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteGLTF(&buf, doc, false); err != nil {
		t.Fatalf("WriteGLTF failed: %v", err)
	}

	var decoded gltf.Document
	if err := gltf.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("decoding written glTF: %v", err)
	}
	if len(decoded.Meshes) != 2 {
		t.Errorf("expected 2 decoded meshes, got %d", len(decoded.Meshes))
	}
}

func TestSaveGLTF(t *testing.T) {
	dir := t.TempDir()
	doc, err := GLTF([]mesh.Mesh{*mesh.Sphere(6, 1)}, "sphere")
	if err != nil {
		t.Fatalf("GLTF failed: %v", err)
	}

	for _, name := range []string{"sphere.glb", "sphere.gltf"} {
		path := filepath.Join(dir, name)
		if err := SaveGLTF(path, doc); err != nil {
			t.Fatalf("SaveGLTF(%s) failed: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
