package mesh

import (
	stdmath "math"

	"github.com/Faultbox/meshcodec/pkg/math"
)

// MinSphereSubdivisions is the smallest subdivision count Sphere accepts.
const MinSphereSubdivisions = 4

// Sphere generates an indexed UV sphere centred on the origin.
//
// subdivisions is the number of rings from pole to pole; twice as many
// segments run around the equator. Values below MinSphereSubdivisions are
// raised to it. The seam column is duplicated so UVs stay continuous.
func Sphere(subdivisions int, radius float32) *Mesh {
	rings := max(subdivisions, MinSphereSubdivisions)
	segments := rings * 2

	vertexCount := (rings + 1) * (segments + 1)
	m := &Mesh{
		Positions: make([]float32, 0, vertexCount*3),
		Normals:   make([]float32, 0, vertexCount*3),
		UVs:       make([]float32, 0, vertexCount*2),
		Indices:   make([]uint32, 0, rings*segments*6),
	}

	for r := 0; r <= rings; r++ {
		v := float64(r) / float64(rings)
		theta := v * stdmath.Pi
		sinTheta, cosTheta := stdmath.Sincos(theta)

		for s := 0; s <= segments; s++ {
			u := float64(s) / float64(segments)
			phi := u * 2 * stdmath.Pi
			sinPhi, cosPhi := stdmath.Sincos(phi)

			n := math.Vec3{
				X: float32(sinTheta * cosPhi),
				Y: float32(cosTheta),
				Z: float32(sinTheta * sinPhi),
			}
			p := n.Scale(radius)

			m.Positions = append(m.Positions, p.X, p.Y, p.Z)
			m.Normals = append(m.Normals, n.X, n.Y, n.Z)
			m.UVs = append(m.UVs, float32(u), float32(v))
		}
	}

	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride

			// Degenerate triangles at the poles are skipped.
			if r != 0 {
				m.Indices = append(m.Indices, a, a+1, b)
			}
			if r != rings-1 {
				m.Indices = append(m.Indices, a+1, b+1, b)
			}
		}
	}

	return m
}
