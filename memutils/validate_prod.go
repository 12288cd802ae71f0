//go:build !debug_mem_utils

package memutils

import "unsafe"

const (
	// PoisonEnabled is true when released blocks are filled with a marker that is checked again before
	// the blocks are granted
	PoisonEnabled bool = false
)

// WritePoison writes an easy-to-identify marker across size bytes at the provided pointer.
// This method no-ops unless the debug_mem_utils build tag is present.
func WritePoison(data unsafe.Pointer, size int) {
}

// ValidatePoison verifies that the marker written by WritePoison is still present across size bytes.
// It returns true if the marker is intact and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidatePoison(data unsafe.Pointer, size int) bool {
	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
}
