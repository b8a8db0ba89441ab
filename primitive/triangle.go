package primitive

import (
	"github.com/achilleasa/polaris-rt/types"
	"github.com/chewxy/math32"
)

// Triangle is intersected using the Moller-Trumbore algorithm.
type Triangle struct {
	V      [3]types.Vec3
	Normal types.Vec3

	bounds types.AABB
}

// Create a new triangle. Vertices should be specified in counter-clockwise
// order when looking at the front face.
func NewTriangle(v0, v1, v2 types.Vec3) *Triangle {
	return &Triangle{
		V:      [3]types.Vec3{v0, v1, v2},
		Normal: v1.Sub(v0).Cross(v2.Sub(v0)).Normalize(),
		bounds: types.AABBFromPoints(v0, v1, v2),
	}
}

func (tri *Triangle) Bounds() types.AABB {
	return tri.bounds
}

func (tri *Triangle) Intersect(ray *types.Ray) (float32, types.Vec3, bool) {
	e1 := tri.V[1].Sub(tri.V[0])
	e2 := tri.V[2].Sub(tri.V[0])
	p := ray.Dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < 1e-9 {
		return 0, types.Vec3{}, false
	}
	invDet := 1.0 / det

	s := ray.Origin.Sub(tri.V[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, types.Vec3{}, false
	}

	q := s.Cross(e1)
	v := ray.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, types.Vec3{}, false
	}

	t := e2.Dot(q) * invDet
	if t <= types.RayEpsilon || t >= ray.T {
		return 0, types.Vec3{}, false
	}
	return t, tri.Normal, true
}

// TrianglePlane is a triangle stored as a normal plane plus three edge
// planes. Each plane is packed as (normal, distance) so a point p lies on
// the inner side of an edge when dot(edge.xyz, p) >= edge.w.
type TrianglePlane struct {
	Center types.Vec4
	Plane  types.Vec4
	Edge   [3]types.Vec4

	bounds types.AABB
}

// Create a new triangle plane from three vertices.
func NewTrianglePlane(v0, v1, v2 types.Vec3) *TrianglePlane {
	tp := &TrianglePlane{
		bounds: types.AABBFromPoints(v0, v1, v2),
	}

	// Calc center and max distance
	center := v0.Add(v1).Add(v2).Mul(1.0 / 3.0)
	maxDist := math32.Max(v0.Sub(center).Len(), math32.Max(v1.Sub(center).Len(), v2.Sub(center).Len()))
	tp.Center = center.Vec4(maxDist)

	e1 := v1.Sub(v0)
	e2 := v2.Sub(v1)
	e3 := v0.Sub(v2)

	// The normal plane distance is measured against the first vertex
	normal := e1.Cross(e2).Normalize()
	tp.Plane = normal.Vec4(normal.Dot(v0))

	e1p := normal.Cross(e1).Normalize()
	e2p := normal.Cross(e2).Normalize()
	e3p := normal.Cross(e3).Normalize()
	tp.Edge[0] = e1p.Vec4(e1p.Dot(v0))
	tp.Edge[1] = e2p.Vec4(e2p.Dot(v1))
	tp.Edge[2] = e3p.Vec4(e3p.Dot(v2))
	return tp
}

func (tp *TrianglePlane) Bounds() types.AABB {
	return tp.bounds
}

func (tp *TrianglePlane) Intersect(ray *types.Ray) (float32, types.Vec3, bool) {
	normal := tp.Plane.Vec3()
	denom := normal.Dot(ray.Dir)
	if math32.Abs(denom) < 1e-9 {
		return 0, types.Vec3{}, false
	}

	t := (tp.Plane[3] - normal.Dot(ray.Origin)) / denom
	if t <= types.RayEpsilon || t >= ray.T {
		return 0, types.Vec3{}, false
	}

	p := ray.At(t)
	for _, edge := range tp.Edge {
		if edge.Vec3().Dot(p) < edge[3]-1e-6 {
			return 0, types.Vec3{}, false
		}
	}
	return t, normal, true
}
