package tui

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects world coordinates onto the canvas with a simple
// perspective divide. Yaw spins around the vertical axis, pitch tilts it.
type Camera struct {
	Distance   float64
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera(distance float64) *Camera {
	return &Camera{Distance: distance, Pitch: 0.25, Zoom: 1.0}
}

func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-1.4, math.Min(1.4, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(8, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.2, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.Pitch), math.Sin(c.Pitch)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project maps a point centered on the origin to dot coordinates on a
// canvas of sw by sh dots. The world is assumed to fit in a sphere of the
// given radius; ok is false when the point lands behind the camera.
func (c *Camera) Project(p r3.Vec, radius float64, sw, sh int) (int, int, bool) {
	if radius <= 0 {
		radius = 1
	}
	rot := c.rotate(r3.Scale(c.Zoom/radius, p))
	dist := c.Distance
	if rot.Z >= dist-1e-9 {
		return 0, 0, false
	}
	scale := dist / (dist - rot.Z)
	half := float64(min(sw, sh)) * 0.45
	sx := sw/2 + int(rot.X*scale*half)
	sy := sh/2 - int(rot.Y*scale*half)
	return sx, sy, true
}
