package scene

import "scene-viewer/math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

func (box AABB) Center() math.Vec3 {
	return box.Min.Add(box.Max).Mul(0.5)
}

// Extent returns the half-size of the box on each axis.
func (box AABB) Extent() math.Vec3 {
	return box.Max.Sub(box.Min).Mul(0.5)
}

func (box AABB) Union(other AABB) AABB {
	out := box
	if other.Min.X < out.Min.X {
		out.Min.X = other.Min.X
	}
	if other.Min.Y < out.Min.Y {
		out.Min.Y = other.Min.Y
	}
	if other.Min.Z < out.Min.Z {
		out.Min.Z = other.Min.Z
	}
	if other.Max.X > out.Max.X {
		out.Max.X = other.Max.X
	}
	if other.Max.Y > out.Max.Y {
		out.Max.Y = other.Max.Y
	}
	if other.Max.Z > out.Max.Z {
		out.Max.Z = other.Max.Z
	}
	return out
}

// ComputeAABB computes the world-space AABB for a mesh transformed by worldMatrix.
// If the mesh has a cached local AABB, it transforms the 8 corners (fast path).
// Otherwise it falls back to iterating all vertices.
func ComputeAABB(mesh *Mesh, worldMatrix math.Mat4) AABB {
	if mesh.HasLocalAABB {
		return transformAABB(mesh.LocalAABB, worldMatrix)
	}
	return computeAABBSlow(mesh, worldMatrix)
}

// transformAABB transforms a local AABB by a world matrix by testing all 8 corners.
func transformAABB(local AABB, m math.Mat4) AABB {
	mn, mx := local.Min, local.Max
	corners := [8]math.Vec3{
		{X: mn.X, Y: mn.Y, Z: mn.Z},
		{X: mx.X, Y: mn.Y, Z: mn.Z},
		{X: mn.X, Y: mx.Y, Z: mn.Z},
		{X: mx.X, Y: mx.Y, Z: mn.Z},
		{X: mn.X, Y: mn.Y, Z: mx.Z},
		{X: mx.X, Y: mn.Y, Z: mx.Z},
		{X: mn.X, Y: mx.Y, Z: mx.Z},
		{X: mx.X, Y: mx.Y, Z: mx.Z},
	}
	first := m.MulVec3(corners[0])
	out := AABB{Min: first, Max: first}
	for i := 1; i < 8; i++ {
		out = out.Union(AABB{Min: m.MulVec3(corners[i]), Max: m.MulVec3(corners[i])})
	}
	return out
}

// computeAABBSlow is the fallback when no cached local AABB is available.
func computeAABBSlow(mesh *Mesh, worldMatrix math.Mat4) AABB {
	if len(mesh.Vertices) == 0 {
		return AABB{}
	}
	first := worldMatrix.MulVec3(mesh.Vertices[0].Position)
	out := AABB{Min: first, Max: first}
	for i := 1; i < len(mesh.Vertices); i++ {
		wp := worldMatrix.MulVec3(mesh.Vertices[i].Position)
		out = out.Union(AABB{Min: wp, Max: wp})
	}
	return out
}
