// Package formats provides parsers for mesh file formats.
// ThreeD (.3d) format codec for triangle meshes.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// ThreeDMagic is the sentinel byte every valid .3d file starts with.
const ThreeDMagic uint8 = 61

// ThreeD format errors.
var (
	ErrTruncatedThreeDData = errors.New("malformed 3D data")
	ErrEmptyThreeDData     = errors.New("no mesh data in 3D file")
	ErrInvalidThreeDMagic  = errors.New("corrupt 3D file: invalid magic number")
	ErrThreeDEncode        = errors.New("encoding 3D data")
)

// Revision identifies a .3d wire layout.
type Revision uint8

const (
	RevisionLegacy  Revision = 1 // single mesh, no uvs
	RevisionCurrent Revision = 2 // list of submeshes with uvs
)

// String returns a human-readable revision name.
func (r Revision) String() string {
	switch r {
	case RevisionLegacy:
		return "1 (legacy)"
	case RevisionCurrent:
		return "2"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(r))
	}
}

// threeDFile is the current-revision wire record.
type threeDFile struct {
	Magic     uint8
	Version   uint8
	Submeshes []threeDSubmesh
}

// threeDSubmesh is one submesh of a current-revision record. Empty slices
// stand for absent attributes.
type threeDSubmesh struct {
	Indices   []uint32
	Positions []float32
	Normals   []float32
	UVs       []float32
}

// threeDLegacyFile is the revision 1 wire record. It has no uvs and holds
// exactly one mesh.
type threeDLegacyFile struct {
	Magic     uint8
	Version   uint8
	Indices   []uint32
	Positions []float32
	Normals   []float32
}

// ParseThreeD decodes .3d data into meshes.
func ParseThreeD(data []byte) ([]mesh.Mesh, error) {
	meshes, _, err := ParseThreeDRevision(data)
	return meshes, err
}

// ParseThreeDRevision decodes .3d data and also reports which wire layout
// matched.
//
// The current layout is tried first. If it does not parse, or parses with
// no submeshes, the legacy layout is tried and upgraded. The version byte
// is not trusted for dispatch: the shape of the data decides.
func ParseThreeDRevision(data []byte) ([]mesh.Mesh, Revision, error) {
	revision := RevisionCurrent
	file, err := decodeThreeD(data)
	if err != nil || len(file.Submeshes) == 0 {
		legacy, legacyErr := decodeThreeDLegacy(data)
		if legacyErr != nil {
			if err == nil {
				// The current layout was well formed, only empty.
				return nil, 0, fmt.Errorf("%w: legacy layout: %v", ErrEmptyThreeDData, legacyErr)
			}
			return nil, 0, legacyErr
		}
		file, revision = legacy, RevisionLegacy
	}

	if file.Magic != ThreeDMagic {
		return nil, 0, fmt.Errorf("%w: got %d, expected %d", ErrInvalidThreeDMagic, file.Magic, ThreeDMagic)
	}

	meshes := make([]mesh.Mesh, len(file.Submeshes))
	for i, sub := range file.Submeshes {
		meshes[i] = mesh.Mesh{
			Positions: sub.Positions,
			Indices:   optional(sub.Indices),
			Normals:   optional(sub.Normals),
			UVs:       optional(sub.UVs),
		}
	}
	return meshes, revision, nil
}

// ParseThreeDFile parses a .3d file from disk.
func ParseThreeDFile(path string) ([]mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading 3D file: %w", err)
	}
	return ParseThreeD(data)
}

// SerializeThreeD encodes meshes as a current-revision .3d record.
func SerializeThreeD(meshes []mesh.Mesh) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, threeDSize(meshes)))
	if err := WriteThreeD(buf, meshes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteThreeD writes meshes to w as a current-revision .3d record.
// The legacy layout is never written.
func WriteThreeD(w io.Writer, meshes []mesh.Mesh) error {
	file := threeDFile{
		Magic:     ThreeDMagic,
		Version:   uint8(RevisionCurrent),
		Submeshes: make([]threeDSubmesh, len(meshes)),
	}
	for i := range meshes {
		file.Submeshes[i] = threeDSubmesh{
			Indices:   meshes[i].Indices,
			Positions: meshes[i].Positions,
			Normals:   meshes[i].Normals,
			UVs:       meshes[i].UVs,
		}
	}

	if err := encodeThreeD(w, &file); err != nil {
		return fmt.Errorf("%w: %w", ErrThreeDEncode, err)
	}
	return nil
}

// WriteThreeDFile encodes meshes and writes them to disk.
func WriteThreeDFile(path string, meshes []mesh.Mesh) error {
	data, err := SerializeThreeD(meshes)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing 3D file: %w", err)
	}
	return nil
}

// optional maps an empty wire sequence to an absent attribute.
func optional[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
