package version

import (
	"fmt"
	"strings"
)

// Capabilities is the bitmask of optional protocol features an endpoint
// supports. Values match the on-wire capability flags of protocol 2.x.
type Capabilities uint32

const (
	CapCompression     Capabilities = 0x0001
	CapEncryption      Capabilities = 0x0002
	CapCompressionZstd Capabilities = 0x0800
	CapCompressionLZ4  Capabilities = 0x1000
)

var capNames = []struct {
	c    Capabilities
	name string
}{
	{CapCompression, "COMPRESSION"},
	{CapEncryption, "ENCRYPTION"},
	{CapCompressionZstd, "COMPRESSION_ZSTD"},
	{CapCompressionLZ4, "COMPRESSION_LZ4"},
}

// Has reports whether every bit in mask is set.
func (c Capabilities) Has(mask Capabilities) bool {
	return c&mask == mask
}

// String returns the set capability names joined by "|", or "NONE".
func (c Capabilities) String() string {
	if c == 0 {
		return "NONE"
	}
	var names []string
	for _, n := range capNames {
		if c.Has(n.c) {
			names = append(names, n.name)
			c &^= n.c
		}
	}
	if c != 0 {
		names = append(names, fmt.Sprintf("0x%X", uint32(c)))
	}
	return strings.Join(names, "|")
}
