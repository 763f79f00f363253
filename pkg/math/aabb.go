package math

import "fmt"

// AABB is an axis-aligned bounding box.
// The zero value is empty and grows to contain the first point added.
type AABB struct {
	Min, Max Vec3
	valid    bool
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Empty reports whether no point has been added.
func (b AABB) Empty() bool {
	return !b.valid
}

// Size returns the box extent on each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// String formats the box as "[min] - [max]".
func (b AABB) String() string {
	if !b.valid {
		return "(empty)"
	}
	return fmt.Sprintf("[%g %g %g] - [%g %g %g]",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
