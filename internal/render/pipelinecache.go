package render

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
)

const (
	cacheHeaderVersionOne = 1
	cacheHeaderSize       = 16 + 16
)

// cacheIdentity is what a pipeline cache blob must match to be reused.
type cacheIdentity struct {
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

// pipelineCacheHeader is the version one header every driver writes at the
// start of its pipeline cache data.
type pipelineCacheHeader struct {
	Length   uint32
	Version  uint32
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

func parseCacheHeader(data []byte) (pipelineCacheHeader, error) {
	var header pipelineCacheHeader
	if len(data) < cacheHeaderSize {
		return header, errors.Newf("cache blob of %d bytes is shorter than its header", len(data))
	}

	err := binary.Read(bytes.NewReader(data), common.ByteOrder, &header)
	return header, errors.Wrap(err, "read cache header")
}

func (h pipelineCacheHeader) check(id cacheIdentity) error {
	switch {
	case h.Length < cacheHeaderSize:
		return errors.Newf("bad header length %d", h.Length)
	case h.Version != cacheHeaderVersionOne:
		return errors.Newf("unsupported header version %d", h.Version)
	case h.VendorID != id.VendorID:
		return errors.Newf("vendor ID mismatch: cache has %#x, driver expects %#x", h.VendorID, id.VendorID)
	case h.DeviceID != id.DeviceID:
		return errors.Newf("device ID mismatch: cache has %#x, driver expects %#x", h.DeviceID, id.DeviceID)
	case h.UUID != id.UUID:
		return errors.Newf("cache UUID mismatch: cache has %s, driver expects %s", h.UUID, id.UUID)
	}
	return nil
}

// readPipelineCache returns the stored cache blob at path when it was written
// by the same driver and device, and nil otherwise. A rejected blob is
// removed so the next run repopulates it.
func readPipelineCache(path string, id cacheIdentity) []byte {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		Logger().Warn("pipeline cache unreadable", slog.String("path", path), slog.Any("error", err))
		return nil
	}

	header, err := parseCacheHeader(data)
	if err == nil {
		err = header.check(id)
	}
	if err != nil {
		Logger().Warn("discarding pipeline cache", slog.String("path", path), slog.Any("reason", err))
		_ = os.Remove(path)
		return nil
	}

	Logger().Debug("pipeline cache loaded", slog.String("path", path), slog.Int("bytes", len(data)))
	return data
}

func writePipelineCache(path string, data []byte) error {
	if path == "" || len(data) == 0 {
		return nil
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write pipeline cache %s", path)
}
