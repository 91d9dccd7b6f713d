package render

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
)

// degreesPerSecond is how fast the mesh spins around its Y axis.
const degreesPerSecond = 90

// UniformPayload is the per-frame uniform block of the vertex shader.
type UniformPayload struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

var uniformSize = binary.Size(UniformPayload{})

// Bytes encodes the payload the way the shader reads it.
func (u UniformPayload) Bytes() []byte {
	buf := &bytes.Buffer{}
	buf.Grow(uniformSize)
	_ = binary.Write(buf, common.ByteOrder, u)
	return buf.Bytes()
}

// ModelMatrix moves center to the origin and spins the mesh around Y by the
// angle reached after elapsed.
func ModelMatrix(center mgl32.Vec3, elapsed time.Duration) mgl32.Mat4 {
	angle := mgl32.DegToRad(float32(elapsed.Seconds() * degreesPerSecond))
	return mgl32.HomogRotate3DY(angle).Mul4(mgl32.Translate3D(-center.X(), -center.Y(), -center.Z()))
}
