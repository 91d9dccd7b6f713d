package selection

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// ErrNoSuitableMemoryType is returned when no memory type satisfies both the
// resource's type filter and the requested property flags.
var ErrNoSuitableMemoryType = errors.New("no suitable memory type")

// FindMemoryType returns the first memory type index whose bit is set in
// typeFilter and whose property flags contain every flag in required.
func FindMemoryType(typeFilter uint32, types []core1_0.MemoryType, required core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		typeBit := uint32(1) << i
		if typeFilter&typeBit != 0 && memoryType.PropertyFlags&required == required {
			return i, nil
		}
	}

	return -1, errors.Wrapf(ErrNoSuitableMemoryType, "filter %#b, properties %v", typeFilter, required)
}
