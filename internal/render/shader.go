package render

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

const (
	vertexShaderFile   = "vert.spv"
	fragmentShaderFile = "frag.spv"
)

// ShaderSet holds the SPIR-V words of the two pipeline stages.
type ShaderSet struct {
	Vertex   []uint32
	Fragment []uint32
}

// LoadShaders reads vert.spv and frag.spv from dir concurrently.
func LoadShaders(dir string) (ShaderSet, error) {
	var set ShaderSet
	var g errgroup.Group

	g.Go(func() (err error) {
		set.Vertex, err = loadSPIRV(filepath.Join(dir, vertexShaderFile))
		return err
	})
	g.Go(func() (err error) {
		set.Fragment, err = loadSPIRV(filepath.Join(dir, fragmentShaderFile))
		return err
	})

	if err := g.Wait(); err != nil {
		return ShaderSet{}, err
	}
	return set, nil
}

func loadSPIRV(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Mark(errors.Wrapf(err, "load shader"), ErrShaderNotFound)
	} else if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "load shader %s", path), ErrShaderNotFound)
	}

	code, err := DecodeSPIRV(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load shader %s", path)
	}
	return code, nil
}

// DecodeSPIRV turns a SPIR-V binary into little-endian 32-bit words. The
// only validation is that the size is a non-zero multiple of 4.
func DecodeSPIRV(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Wrapf(ErrMalformedShader, "size %d is not a positive multiple of 4", len(data))
	}

	code := make([]uint32, len(data)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return code, nil
}
