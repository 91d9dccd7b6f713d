// Package camera builds view and projection matrices for the renderer.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// clip maps OpenGL clip space to Vulkan's: Y points down and depth runs
// from 0 to 1.
var clip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a perspective camera. FovY is in degrees.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FovY float32
	Near float32
	Far  float32
}

// New returns a camera 200 units down -Z looking at the origin.
func New(fovY float32) Camera {
	return Camera{
		Position: mgl32.Vec3{0, 0, -200},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     fovY,
		Near:     0.1,
		Far:      500,
	}
}

func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective projection for aspect (width/height),
// already corrected for Vulkan clip space.
func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return clip.Mul4(mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far))
}

// Fit moves the camera back along its viewing direction until a sphere of
// radius around Target fills at most the vertical field of view, and pushes
// the far plane past the sphere.
func (c *Camera) Fit(radius float32) {
	if radius <= 0 {
		return
	}

	forward := c.Target.Sub(c.Position)
	if forward.Len() == 0 {
		forward = mgl32.Vec3{0, 0, 1}
	}
	forward = forward.Normalize()

	half := float64(mgl32.DegToRad(c.FovY)) / 2
	distance := float32(float64(radius)/math.Sin(half)) * 1.1

	c.Position = c.Target.Sub(forward.Mul(distance))
	if far := distance + 2*radius; far > c.Far {
		c.Far = far
	}
}
