package tui

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/constraint"
	"github.com/ornlund/mdshake/internal/geom"
	"github.com/ornlund/mdshake/internal/md"
)

// RenderSystem draws the boundary box, every constrained bond, and every
// atom of the state onto the canvas. Bonds crossing a periodic boundary
// are drawn along the minimum image, not across the box.
func RenderSystem(c *Canvas, cam *Camera, st *md.State, clusters []constraint.Cluster) {
	c.Clear()
	center, radius := systemExtent(st)
	sw, sh := c.Width*2, c.Height*4

	if box, ok := st.Boundary.(geom.Box); ok {
		drawBox(c, cam, box, center, radius, sw, sh)
	}

	for _, cl := range clusters {
		for _, con := range cl.Cons {
			a := st.Pos[con.I]
			b := r3.Add(a, st.Boundary.Displacement(a, st.Pos[con.J]))
			x0, y0, ok0 := cam.Project(r3.Sub(a, center), radius, sw, sh)
			x1, y1, ok1 := cam.Project(r3.Sub(b, center), radius, sw, sh)
			if ok0 && ok1 {
				c.DrawLine(x0, y0, x1, y1)
			}
		}
	}

	for _, p := range st.Pos {
		x, y, ok := cam.Project(r3.Sub(p, center), radius, sw, sh)
		if !ok {
			continue
		}
		c.Set(x, y)
		c.Set(x+1, y)
		c.Set(x, y+1)
		c.Set(x+1, y+1)
	}
}

// systemExtent returns the view center and bounding radius, from the box
// when the boundary is periodic and from the atoms themselves otherwise.
func systemExtent(st *md.State) (r3.Vec, float64) {
	if box, ok := st.Boundary.(geom.Box); ok {
		c := r3.Vec{X: box.Lx / 2, Y: box.Ly / 2, Z: box.Lz / 2}
		return c, 0.87 * math.Max(box.Lx, math.Max(box.Ly, box.Lz))
	}
	var c r3.Vec
	for _, p := range st.Pos {
		c = r3.Add(c, p)
	}
	if n := len(st.Pos); n > 0 {
		c = r3.Scale(1/float64(n), c)
	}
	radius := 2.0
	for _, p := range st.Pos {
		radius = math.Max(radius, r3.Norm(r3.Sub(p, c))+1)
	}
	return c, radius
}

func drawBox(c *Canvas, cam *Camera, box geom.Box, center r3.Vec, radius float64, sw, sh int) {
	corner := func(i, j, k int) r3.Vec {
		return r3.Sub(r3.Vec{X: float64(i) * box.Lx, Y: float64(j) * box.Ly, Z: float64(k) * box.Lz}, center)
	}
	edges := [][2][3]int{
		{{0, 0, 0}, {1, 0, 0}}, {{0, 1, 0}, {1, 1, 0}}, {{0, 0, 1}, {1, 0, 1}}, {{0, 1, 1}, {1, 1, 1}},
		{{0, 0, 0}, {0, 1, 0}}, {{1, 0, 0}, {1, 1, 0}}, {{0, 0, 1}, {0, 1, 1}}, {{1, 0, 1}, {1, 1, 1}},
		{{0, 0, 0}, {0, 0, 1}}, {{1, 0, 0}, {1, 0, 1}}, {{0, 1, 0}, {0, 1, 1}}, {{1, 1, 0}, {1, 1, 1}},
	}
	for _, e := range edges {
		a := corner(e[0][0], e[0][1], e[0][2])
		b := corner(e[1][0], e[1][1], e[1][2])
		x0, y0, ok0 := cam.Project(a, radius, sw, sh)
		x1, y1, ok1 := cam.Project(b, radius, sw, sh)
		if ok0 && ok1 {
			c.DrawLine(x0, y0, x1, y1)
		}
	}
}
