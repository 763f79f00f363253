// Package export converts decoded meshes to interchange formats.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// GLTF builds a glTF document with one node per mesh.
// Node and mesh names are derived from name and the mesh index.
func GLTF(meshes []mesh.Mesh, name string) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
	})

	for i := range meshes {
		m := &meshes[i]
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}

		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(doc, packVec3(m.Positions)),
		}
		if m.HasNormals() {
			attributes["NORMAL"] = modeler.WriteNormal(doc, packVec3(m.Normals))
		}
		if m.HasUVs() {
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, packVec2(m.UVs))
		}

		primitive := &gltf.Primitive{
			Attributes: attributes,
			Material:   gltf.Index(0),
		}
		if m.HasIndices() {
			primitive.Indices = gltf.Index(modeler.WriteIndices(doc, m.Indices))
		}

		meshName := fmt.Sprintf("%s_%d", name, i)
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       meshName,
			Primitives: []*gltf.Primitive{primitive},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: meshName,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
	}

	return doc, nil
}

// WriteGLTF encodes doc to w, as GLB when binary is set. Without the
// binary container, buffers are embedded as base64 data URIs.
func WriteGLTF(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return encoder.Encode(doc)
}

// SaveGLTF writes doc to path. A .glb extension selects the binary
// container, anything else writes JSON with embedded buffers.
func SaveGLTF(path string, doc *gltf.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating glTF file: %w", err)
	}

	binary := strings.EqualFold(filepath.Ext(path), ".glb")
	if err := WriteGLTF(f, doc, binary); err != nil {
		f.Close()
		return fmt.Errorf("encoding glTF: %w", err)
	}
	return f.Close()
}

func packVec3(data []float32) [][3]float32 {
	out := make([][3]float32, len(data)/3)
	for i := range out {
		out[i] = [3]float32{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return out
}

func packVec2(data []float32) [][2]float32 {
	out := make([][2]float32, len(data)/2)
	for i := range out {
		out[i] = [2]float32{data[i*2], data[i*2+1]}
	}
	return out
}
