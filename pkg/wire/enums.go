package wire

import "strings"

// Kind identifies what a message is for.
type Kind uint8

const (
	// KindData carries application data with no request/response semantics.
	KindData Kind = 0

	// KindControl carries transport-level control information.
	KindControl Kind = 1

	// KindHeartbeat is a liveness probe. The payload is usually empty.
	KindHeartbeat Kind = 2

	// KindError reports a failure, usually correlated by request ID.
	KindError Kind = 3

	// KindRequest expects a KindResponse with the same request ID.
	KindRequest Kind = 4

	// KindResponse answers a KindRequest.
	KindResponse Kind = 5

	// KindReservedMin is the first value of the range held back for future
	// extension kinds. Decoders reject these until they are assigned.
	KindReservedMin Kind = 0x80
)

// IsValid returns true if the kind is one of the assigned kinds.
func (k Kind) IsValid() bool {
	return k <= KindResponse
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "DATA"
	case KindControl:
		return "CONTROL"
	case KindHeartbeat:
		return "HEARTBEAT"
	case KindError:
		return "ERROR"
	case KindRequest:
		return "REQUEST"
	case KindResponse:
		return "RESPONSE"
	default:
		if k >= KindReservedMin {
			return "RESERVED"
		}
		return "UNKNOWN"
	}
}

// Flags is the per-message bitmask carried in the frame header.
//
// Compressed and Encrypted are owned by the pipeline: they describe the
// transforms applied to the payload on the wire. Fragmented is reserved for a
// future continuation mechanism and only round-trips. The remaining bits are
// hints for the application.
type Flags uint8

const (
	FlagEncrypted    Flags = 0x01
	FlagCompressed   Flags = 0x02
	FlagUrgent       Flags = 0x04
	FlagRequiresAck  Flags = 0x08
	FlagIdempotent   Flags = 0x10
	FlagHighPriority Flags = 0x20
	FlagRequiresAuth Flags = 0x40
	FlagFragmented   Flags = 0x80

	// FlagNone is the empty flag set.
	FlagNone Flags = 0

	// pipelineFlags are the bits the pipeline sets and clears itself.
	pipelineFlags = FlagEncrypted | FlagCompressed
)

// Has returns true if all bits in mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// With returns f with the bits in mask set.
func (f Flags) With(mask Flags) Flags {
	return f | mask
}

// Without returns f with the bits in mask cleared.
func (f Flags) Without(mask Flags) Flags {
	return f &^ mask
}

// Transforms returns only the pipeline-owned bits (Compressed, Encrypted).
func (f Flags) Transforms() Flags {
	return f & pipelineFlags
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagEncrypted, "ENCRYPTED"},
	{FlagCompressed, "COMPRESSED"},
	{FlagUrgent, "URGENT"},
	{FlagRequiresAck, "REQUIRES_ACK"},
	{FlagIdempotent, "IDEMPOTENT"},
	{FlagHighPriority, "HIGH_PRIORITY"},
	{FlagRequiresAuth, "REQUIRES_AUTH"},
	{FlagFragmented, "FRAGMENTED"},
}

// String returns the set flag names joined with "|", or "NONE".
func (f Flags) String() string {
	if f == FlagNone {
		return "NONE"
	}
	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}
