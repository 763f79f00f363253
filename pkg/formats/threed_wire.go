package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// Wire layout: little endian, u8 scalars, sequences prefixed by a u64
// element count. Trailing bytes after a complete record are ignored.
const (
	threeDHeaderSize   = 2
	threeDLengthSize   = 8
	threeDElementSize  = 4
	threeDSubmeshFloor = 4 * threeDLengthSize // four empty sequences
)

// threeDReader reads wire primitives and reports any shortfall as
// ErrTruncatedThreeDData.
type threeDReader struct {
	r *bytes.Reader
}

func (tr threeDReader) u8(field string) (uint8, error) {
	b, err := tr.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s", ErrTruncatedThreeDData, field)
	}
	return b, nil
}

// count reads a sequence length and checks the remaining data can hold
// that many elements of elemSize bytes.
func (tr threeDReader) count(field string, elemSize int) (int, error) {
	var n uint64
	if err := binary.Read(tr.r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("%w: reading %s length", ErrTruncatedThreeDData, field)
	}
	if n > uint64(tr.r.Len()/elemSize) {
		return 0, fmt.Errorf("%w: %s length %d exceeds remaining %d bytes", ErrTruncatedThreeDData, field, n, tr.r.Len())
	}
	return int(n), nil
}

func (tr threeDReader) u32s(field string) ([]uint32, error) {
	n, err := tr.count(field, threeDElementSize)
	if err != nil {
		return nil, err
	}
	s := make([]uint32, n)
	if err := binary.Read(tr.r, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("%w: reading %s", ErrTruncatedThreeDData, field)
	}
	return s, nil
}

func (tr threeDReader) f32s(field string) ([]float32, error) {
	n, err := tr.count(field, threeDElementSize)
	if err != nil {
		return nil, err
	}
	s := make([]float32, n)
	if err := binary.Read(tr.r, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("%w: reading %s", ErrTruncatedThreeDData, field)
	}
	return s, nil
}

// decodeThreeD reads the data as a current-revision record.
func decodeThreeD(data []byte) (*threeDFile, error) {
	tr := threeDReader{r: bytes.NewReader(data)}
	file := &threeDFile{}

	var err error
	if file.Magic, err = tr.u8("magic"); err != nil {
		return nil, err
	}
	if file.Version, err = tr.u8("version"); err != nil {
		return nil, err
	}

	count, err := tr.count("submeshes", threeDSubmeshFloor)
	if err != nil {
		return nil, err
	}

	file.Submeshes = make([]threeDSubmesh, count)
	for i := range file.Submeshes {
		sub, err := decodeThreeDSubmesh(tr)
		if err != nil {
			return nil, fmt.Errorf("parsing submesh %d: %w", i, err)
		}
		file.Submeshes[i] = *sub
	}

	return file, nil
}

func decodeThreeDSubmesh(tr threeDReader) (*threeDSubmesh, error) {
	sub := &threeDSubmesh{}

	var err error
	if sub.Indices, err = tr.u32s("indices"); err != nil {
		return nil, err
	}
	if sub.Positions, err = tr.f32s("positions"); err != nil {
		return nil, err
	}
	if sub.Normals, err = tr.f32s("normals"); err != nil {
		return nil, err
	}
	if sub.UVs, err = tr.f32s("uvs"); err != nil {
		return nil, err
	}

	return sub, nil
}

// decodeThreeDLegacy reads the data as a revision 1 record and upgrades it
// to the current shape: always exactly one submesh with empty uvs.
func decodeThreeDLegacy(data []byte) (*threeDFile, error) {
	tr := threeDReader{r: bytes.NewReader(data)}
	legacy := &threeDLegacyFile{}

	var err error
	if legacy.Magic, err = tr.u8("magic"); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}
	if legacy.Version, err = tr.u8("version"); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}
	if legacy.Indices, err = tr.u32s("indices"); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}
	if legacy.Positions, err = tr.f32s("positions"); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}
	if legacy.Normals, err = tr.f32s("normals"); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}

	return &threeDFile{
		Magic:     legacy.Magic,
		Version:   uint8(RevisionCurrent),
		Submeshes: []threeDSubmesh{{
			Indices:   legacy.Indices,
			Positions: legacy.Positions,
			Normals:   legacy.Normals,
			UVs:       []float32{},
		}},
	}, nil
}

// encodeThreeD writes a current-revision record.
func encodeThreeD(w io.Writer, file *threeDFile) error {
	if _, err := w.Write([]byte{file.Magic, file.Version}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(file.Submeshes))); err != nil {
		return err
	}

	for i := range file.Submeshes {
		sub := &file.Submeshes[i]
		if err := writeThreeDSeq(w, sub.Indices); err != nil {
			return fmt.Errorf("submesh %d indices: %w", i, err)
		}
		if err := writeThreeDSeq(w, sub.Positions); err != nil {
			return fmt.Errorf("submesh %d positions: %w", i, err)
		}
		if err := writeThreeDSeq(w, sub.Normals); err != nil {
			return fmt.Errorf("submesh %d normals: %w", i, err)
		}
		if err := writeThreeDSeq(w, sub.UVs); err != nil {
			return fmt.Errorf("submesh %d uvs: %w", i, err)
		}
	}

	return nil
}

// writeThreeDSeq writes a length-prefixed sequence. A nil slice is written
// as an empty one.
func writeThreeDSeq[T uint32 | float32](w io.Writer, s []T) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, s)
}

// threeDSize returns the encoded size of meshes.
func threeDSize(meshes []mesh.Mesh) int {
	size := threeDHeaderSize + threeDLengthSize
	for i := range meshes {
		m := &meshes[i]
		size += threeDSubmeshFloor
		size += threeDElementSize * (len(m.Indices) + len(m.Positions) + len(m.Normals) + len(m.UVs))
	}
	return size
}
