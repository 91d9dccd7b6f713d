package mesh

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quad = `o quad
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3 4
`

func decode(t *testing.T, src string) *Mesh {
	t.Helper()

	m, err := Decode(strings.NewReader(src), bytes.NewReader(nil))
	require.NoError(t, err)
	return m
}

func TestVertexStride(t *testing.T) {
	assert.Equal(t, 36, VertexStride)
}

func TestDecodeTriangulatesFans(t *testing.T) {
	m := decode(t, quad)

	require.Len(t, m.Vertices, 6)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, m.Indices)

	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, m.Vertices[0].Position)
	assert.Equal(t, mgl32.Vec3{1, -1, 0}, m.Vertices[1].Position)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, m.Vertices[2].Position)
	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, m.Vertices[3].Position)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, m.Vertices[4].Position)
	assert.Equal(t, mgl32.Vec3{-1, 1, 0}, m.Vertices[5].Position)
}

func TestDecodeAlternatesShades(t *testing.T) {
	m := decode(t, quad)

	for i := 0; i < 3; i++ {
		assert.Equal(t, shades[0], m.Vertices[i].Color)
		assert.Equal(t, shades[1], m.Vertices[i+3].Color)
	}
}

func TestDecodeComputesFlatNormals(t *testing.T) {
	m := decode(t, quad)

	for _, v := range m.Vertices {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, v.Normal)
	}
}

func TestDecodeUsesFileNormals(t *testing.T) {
	m := decode(t, `o tri
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 -1
f 1//1 2//1 3//1
`)

	for _, v := range m.Vertices {
		assert.Equal(t, mgl32.Vec3{0, 0, -1}, v.Normal)
	}
}

func TestDecodeBounds(t *testing.T) {
	m := decode(t, `o offset
v 9 0 0
v 11 0 0
v 11 2 0
v 9 2 0
f 1 2 3 4
`)

	assert.Equal(t, mgl32.Vec3{10, 1, 0}, m.Center)
	assert.InDelta(t, 1.41421, m.Radius, 1e-4)
}

func TestDecodeRejectsEmpty(t *testing.T) {
	_, err := Decode(strings.NewReader("o empty\n"), bytes.NewReader(nil))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("o points\nv 0 0 0\nv 1 0 0\n"), bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestBytes(t *testing.T) {
	m := decode(t, quad)

	vb := m.VertexBytes()
	assert.Len(t, vb, len(m.Vertices)*VertexStride)

	var first Vertex
	require.NoError(t, binary.Read(bytes.NewReader(vb), binary.LittleEndian, &first))
	assert.Equal(t, m.Vertices[0], first)

	assert.Len(t, m.IndexBytes(), len(m.Indices)*4)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quad), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Indices, 6)

	_, err = Load(filepath.Join(dir, "missing.obj"))
	assert.Error(t, err)
}
