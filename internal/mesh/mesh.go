// Package mesh turns Wavefront OBJ files into the flat vertex and index
// lists the renderer uploads.
package mesh

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
)

// Triangles alternate between these two shades so faces stay readable
// without lighting.
var shades = [2]mgl32.Vec3{
	{0.85, 0.85, 0.85},
	{0.55, 0.55, 0.55},
}

// Vertex is one corner of a triangle as the vertex shader sees it.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

// VertexStride is the size of Vertex in bytes.
var VertexStride = binary.Size(Vertex{})

// Mesh is a triangle list ready for upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32

	// Center is the centroid of the source positions. The renderer spins
	// the mesh around it.
	Center mgl32.Vec3
	// Radius is the largest distance from Center to any source position.
	Radius float32
}

// Load reads the OBJ file at path. A material library next to it with the
// same base name is read when present.
func Load(path string) (*Mesh, error) {
	objFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open mesh")
	}
	defer objFile.Close()

	var mtl io.Reader = bytes.NewReader(nil)
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if mtlFile, err := os.Open(mtlPath); err == nil {
		defer mtlFile.Close()
		mtl = mtlFile
	}

	m, err := Decode(objFile, mtl)
	if err != nil {
		return nil, errors.Wrapf(err, "load mesh %s", path)
	}
	return m, nil
}

// Decode parses OBJ data from objData and material data from mtlData.
func Decode(objData, mtlData io.Reader) (*Mesh, error) {
	decoder, err := obj.DecodeReader(objData, mtlData)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}
	return FromDecoder(decoder)
}

// FromDecoder builds a mesh from decoded OBJ data. Polygons are
// triangulated as fans and every triangle gets its own three vertices.
func FromDecoder(decoder *obj.Decoder) (*Mesh, error) {
	positions := len(decoder.Vertices) / 3
	if positions == 0 {
		return nil, errors.New("mesh has no vertices")
	}

	m := &Mesh{}
	m.Center, m.Radius = bounds(decoder.Vertices)

	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				corners := [3]int{0, i - 1, i}
				if err := m.addTriangle(decoder, face, corners); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(m.Indices) == 0 {
		return nil, errors.New("mesh has no triangles")
	}
	return m, nil
}

func (m *Mesh) addTriangle(decoder *obj.Decoder, face obj.Face, corners [3]int) error {
	var tri [3]Vertex
	for c, corner := range corners {
		idx := face.Vertices[corner]
		if idx < 0 || idx*3+2 >= len(decoder.Vertices) {
			return errors.Newf("face references vertex %d of %d", idx, len(decoder.Vertices)/3)
		}
		tri[c].Position = mgl32.Vec3{
			decoder.Vertices[idx*3],
			decoder.Vertices[idx*3+1],
			decoder.Vertices[idx*3+2],
		}
	}

	flat := faceNormal(tri[0].Position, tri[1].Position, tri[2].Position)
	shade := shades[(len(m.Indices)/3)%len(shades)]

	for c, corner := range corners {
		tri[c].Color = shade
		tri[c].Normal = flat
		if corner < len(face.Normals) {
			if n := face.Normals[corner]; n >= 0 && n*3+2 < len(decoder.Normals) {
				tri[c].Normal = mgl32.Vec3{
					decoder.Normals[n*3],
					decoder.Normals[n*3+1],
					decoder.Normals[n*3+2],
				}
			}
		}

		m.Indices = append(m.Indices, uint32(len(m.Vertices)))
		m.Vertices = append(m.Vertices, tri[c])
	}
	return nil
}

func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

func bounds(coords []float32) (mgl32.Vec3, float32) {
	count := len(coords) / 3

	var center mgl32.Vec3
	for i := 0; i < count; i++ {
		center = center.Add(mgl32.Vec3{coords[i*3], coords[i*3+1], coords[i*3+2]})
	}
	center = center.Mul(1 / float32(count))

	var radius float32
	for i := 0; i < count; i++ {
		d := mgl32.Vec3{coords[i*3], coords[i*3+1], coords[i*3+2]}.Sub(center).Len()
		if d > radius {
			radius = d
		}
	}
	return center, radius
}

// VertexBytes encodes the vertices in the layout the pipeline expects.
func (m *Mesh) VertexBytes() []byte {
	buf := &bytes.Buffer{}
	buf.Grow(len(m.Vertices) * VertexStride)
	_ = binary.Write(buf, common.ByteOrder, m.Vertices)
	return buf.Bytes()
}

// IndexBytes encodes the indices as 32-bit integers.
func (m *Mesh) IndexBytes() []byte {
	buf := &bytes.Buffer{}
	buf.Grow(len(m.Indices) * 4)
	_ = binary.Write(buf, common.ByteOrder, m.Indices)
	return buf.Bytes()
}
