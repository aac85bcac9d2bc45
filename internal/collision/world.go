package collision

import (
	"log/slog"
	"math"

	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 1e-9

type triangle struct {
	a, b, c mgl64.Vec3
}

type surface struct {
	node   *scene.Node
	mask   Mask
	tri    *triangle
	sphere *Sphere
}

type pusher struct {
	probe      *Probe
	target     *scene.Node
	horizontal bool
}

// World is an in-memory Engine over triangles and spheres. Geometry is given
// in the owning node's local space and follows that node when it moves.
// Hits are reported in registration order.
type World struct {
	surfaces       []surface
	pushers        []pusher
	showCollisions bool
}

var _ Engine = (*World)(nil)

func NewWorld() *World {
	return &World{}
}

func (w *World) AddTriangle(node *scene.Node, a, b, c mgl64.Vec3, mask Mask) {
	w.surfaces = append(w.surfaces, surface{node: node, mask: mask, tri: &triangle{a: a, b: b, c: c}})
}

func (w *World) AddSphere(node *scene.Node, s Sphere, mask Mask) {
	w.surfaces = append(w.surfaces, surface{node: node, mask: mask, sphere: &s})
}

func (w *World) SurfaceCount() int { return len(w.surfaces) }

func (w *World) ShowCollisions(on bool) { w.showCollisions = on }

func (w *World) CollisionsShown() bool { return w.showCollisions }

func (w *World) AddPusher(p *Probe, target *scene.Node, horizontal bool) {
	if _, ok := p.Solid.(Sphere); !ok {
		slog.Warn("Ignoring pusher with non-sphere solid", "probe", p.Node.Name())
		return
	}
	w.pushers = append(w.pushers, pusher{probe: p, target: target, horizontal: horizontal})
}

// Query returns the contacts of p against every surface sharing a mask bit.
// For rays, Distance is the distance from the ray origin. For spheres, Normal
// points from the surface toward the sphere centre and Distance is the
// penetration depth.
func (w *World) Query(p *Probe, root *scene.Node) []Hit {
	if p == nil || p.Mask == MaskNone {
		return nil
	}
	m := p.Node.Mat(root)
	switch s := p.Solid.(type) {
	case Ray:
		origin := mgl64.TransformCoordinate(s.Origin, m)
		dir := mgl64.TransformNormal(s.Direction, m)
		if dir.Len() < tolerance {
			return nil
		}
		return w.castRay(p, origin, dir.Normalize(), root)
	case Sphere:
		center := mgl64.TransformCoordinate(s.Center, m)
		return w.overlapSphere(p, center, s.Radius, root)
	}
	return nil
}

func (w *World) castRay(p *Probe, origin, dir mgl64.Vec3, root *scene.Node) []Hit {
	var hits []Hit
	for _, surf := range w.surfaces {
		if surf.mask&p.Mask == 0 || surf.node == p.Node {
			continue
		}
		sm := surf.node.Mat(root)
		var (
			t      float64
			normal mgl64.Vec3
			ok     bool
		)
		switch {
		case surf.tri != nil:
			t, normal, ok = rayTriangle(origin, dir, surf.tri.transformed(sm))
		case surf.sphere != nil:
			t, normal, ok = raySphere(origin, dir, mgl64.TransformCoordinate(surf.sphere.Center, sm), surf.sphere.Radius)
		}
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Point:    origin.Add(dir.Mul(t)),
			Normal:   normal,
			Into:     surf.node.Name(),
			IntoID:   surf.node.ID(),
			Distance: t,
		})
	}
	return hits
}

func (w *World) overlapSphere(p *Probe, center mgl64.Vec3, radius float64, root *scene.Node) []Hit {
	var hits []Hit
	for _, surf := range w.surfaces {
		if surf.mask&p.Mask == 0 || surf.node == p.Node {
			continue
		}
		sm := surf.node.Mat(root)
		var closest mgl64.Vec3
		reach := radius
		switch {
		case surf.tri != nil:
			closest = surf.tri.transformed(sm).closestPoint(center)
		case surf.sphere != nil:
			sc := mgl64.TransformCoordinate(surf.sphere.Center, sm)
			reach += surf.sphere.Radius
			closest = sc
		}
		delta := center.Sub(closest)
		dist := delta.Len()
		if dist >= reach {
			continue
		}
		normal := mgl64.Vec3{1, 0, 0}
		if dist > tolerance {
			normal = delta.Mul(1 / dist)
		}
		point := closest
		if surf.sphere != nil {
			point = closest.Add(normal.Mul(surf.sphere.Radius))
		}
		hits = append(hits, Hit{
			Point:    point,
			Normal:   normal,
			Into:     surf.node.Name(),
			IntoID:   surf.node.ID(),
			Distance: reach - dist,
		})
	}
	return hits
}

// Traverse pushes every registered pusher target out of the geometry its
// probe overlaps.
func (w *World) Traverse(root *scene.Node) {
	for _, ps := range w.pushers {
		hits := w.Query(ps.probe, root)
		if len(hits) == 0 {
			continue
		}
		var push mgl64.Vec3
		for _, h := range hits {
			normal := h.Normal
			if ps.horizontal {
				normal[2] = 0
				if normal.Len() < tolerance {
					continue
				}
				normal = normal.Normalize()
			}
			push = push.Add(normal.Mul(h.Distance))
		}
		if push.Len() < tolerance {
			continue
		}
		ps.target.SetPosIn(root, ps.target.PosIn(root).Add(push))
		if w.showCollisions {
			slog.Debug("Collision push", "target", ps.target.Name(), "contacts", len(hits), "push", push)
		}
	}
}

func (t *triangle) transformed(m mgl64.Mat4) triangle {
	return triangle{
		a: mgl64.TransformCoordinate(t.a, m),
		b: mgl64.TransformCoordinate(t.b, m),
		c: mgl64.TransformCoordinate(t.c, m),
	}
}

func rayTriangle(origin, dir mgl64.Vec3, tri triangle) (float64, mgl64.Vec3, bool) {
	e1 := tri.b.Sub(tri.a)
	e2 := tri.c.Sub(tri.a)
	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < tolerance {
		return 0, mgl64.Vec3{}, false
	}
	inv := 1 / det
	tvec := origin.Sub(tri.a)
	u := tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, mgl64.Vec3{}, false
	}
	qvec := tvec.Cross(e1)
	v := dir.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, mgl64.Vec3{}, false
	}
	t := e2.Dot(qvec) * inv
	if t < 0 {
		return 0, mgl64.Vec3{}, false
	}
	return t, e1.Cross(e2).Normalize(), true
}

func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, mgl64.Vec3, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, mgl64.Vec3{}, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, mgl64.Vec3{}, false
	}
	point := origin.Add(dir.Mul(t))
	return t, point.Sub(center).Normalize(), true
}

func (t triangle) closestPoint(p mgl64.Vec3) mgl64.Vec3 {
	ab := t.b.Sub(t.a)
	ac := t.c.Sub(t.a)
	ap := p.Sub(t.a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return t.a
	}

	bp := p.Sub(t.b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return t.b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return t.a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(t.c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return t.c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return t.a.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return t.b.Add(t.c.Sub(t.b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return t.a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
