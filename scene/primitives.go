package scene

import (
	"github.com/chewxy/math32"

	"scene-viewer/core"
	"scene-viewer/math"
)

// CreateCube generates an axis-aligned cube centered at the origin.
func CreateCube(size float32) *Mesh {
	s := size / 2

	vertices := []core.Vertex{
		// Front face
		{Position: math.Vec3{X: -s, Y: -s, Z: s}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: -s, Z: s}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: s, Z: s}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: s, Z: s}, Normal: math.Vec3{Z: 1}, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
		// Back face
		{Position: math.Vec3{X: -s, Y: -s, Z: -s}, Normal: math.Vec3{Z: -1}, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: -s, Z: -s}, Normal: math.Vec3{Z: -1}, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: s, Z: -s}, Normal: math.Vec3{Z: -1}, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: s, Z: -s}, Normal: math.Vec3{Z: -1}, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		// Top face
		{Position: math.Vec3{X: -s, Y: s, Z: -s}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: s, Z: -s}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: s, Z: s}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: s, Z: s}, Normal: math.Vec3{Y: 1}, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
		// Bottom face
		{Position: math.Vec3{X: -s, Y: -s, Z: -s}, Normal: math.Vec3{Y: -1}, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: -s, Z: -s}, Normal: math.Vec3{Y: -1}, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: -s, Z: s}, Normal: math.Vec3{Y: -1}, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: -s, Z: s}, Normal: math.Vec3{Y: -1}, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		// Right face
		{Position: math.Vec3{X: s, Y: -s, Z: -s}, Normal: math.Vec3{X: 1}, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: -s, Z: s}, Normal: math.Vec3{X: 1}, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: s, Z: s}, Normal: math.Vec3{X: 1}, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: s, Y: s, Z: -s}, Normal: math.Vec3{X: 1}, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
		// Left face
		{Position: math.Vec3{X: -s, Y: -s, Z: -s}, Normal: math.Vec3{X: -1}, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: -s, Z: s}, Normal: math.Vec3{X: -1}, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: s, Z: s}, Normal: math.Vec3{X: -1}, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -s, Y: s, Z: -s}, Normal: math.Vec3{X: -1}, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
	}

	indices := []uint32{
		0, 1, 2, 2, 3, 0,
		4, 6, 5, 6, 4, 7,
		8, 9, 10, 10, 11, 8,
		12, 14, 13, 14, 12, 15,
		16, 17, 18, 18, 19, 16,
		20, 22, 21, 22, 20, 23,
	}

	return CreateMeshFromData("Cube", vertices, indices)
}

// CreatePlane generates a ground plane on the XZ axes, facing up.
func CreatePlane(width, depth float32) *Mesh {
	w := width / 2
	d := depth / 2

	vertices := []core.Vertex{
		{Position: math.Vec3{X: -w, Z: -d}, Normal: math.Vec3Up, UV: math.Vec2{X: 0, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: w, Z: -d}, Normal: math.Vec3Up, UV: math.Vec2{X: 1, Y: 0}, Color: core.ColorWhite},
		{Position: math.Vec3{X: w, Z: d}, Normal: math.Vec3Up, UV: math.Vec2{X: 1, Y: 1}, Color: core.ColorWhite},
		{Position: math.Vec3{X: -w, Z: d}, Normal: math.Vec3Up, UV: math.Vec2{X: 0, Y: 1}, Color: core.ColorWhite},
	}
	indices := []uint32{0, 2, 1, 2, 0, 3}

	return CreateMeshFromData("Plane", vertices, indices)
}

// CreateSphere generates a UV-sphere mesh. The unit sphere doubles as the
// light gizmo proxy.
func CreateSphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var vertices []core.Vertex
	var indices []uint32

	for ring := 0; ring <= rings; ring++ {
		phi := float32(ring) * math32.Pi / float32(rings)
		sinPhi, cosPhi := math32.Sincos(phi)

		for seg := 0; seg <= segments; seg++ {
			theta := float32(seg) * 2 * math32.Pi / float32(segments)
			sinTheta, cosTheta := math32.Sincos(theta)

			normal := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       math.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)},
				Color:    core.ColorWhite,
			})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)

			indices = append(indices, current, next, current+1)
			indices = append(indices, current+1, next, next+1)
		}
	}

	return CreateMeshFromData("Sphere", vertices, indices)
}
