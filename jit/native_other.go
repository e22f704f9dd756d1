//go:build !(linux && amd64)

package jit

// DefaultCodeBufferSize is the executable memory reserved for native code.
const DefaultCodeBufferSize = 4 << 20

// NewNativeBackend reports that this host has no native backend.
func NewNativeBackend(int) (NativeBackend, error) {
	return nil, ErrNativeUnsupported
}
