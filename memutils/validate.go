package memutils

// Validatable is implemented by pools, block metadata, and pool-backed containers that can check their
// own internal consistency. DebugValidate calls Validate on them in debug builds.
type Validatable interface {
	Validate() error
}
