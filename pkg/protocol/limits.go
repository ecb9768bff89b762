package protocol

// Limits applied while decoding inbound messages.
const (
	// MaxVNodeDepth limits the nesting depth of a decoded VNode tree.
	// Decoding recurses per level, so this bounds stack usage.
	MaxVNodeDepth = 256

	// MaxPatchesPerBatch limits the number of patches in one message.
	MaxPatchesPerBatch = 10000

	// MaxMessageSize limits the size of one inbound message in bytes.
	MaxMessageSize = 4 << 20
)

// checkDepth is a convenience function for one-time depth checks.
func checkDepth(current, max int) error {
	if current > max {
		return decodeErr(ErrTooDeep, "", "vnode nesting exceeds limit")
	}
	return nil
}
