package kv

import "errors"

// Medium is the persistent key-value store the engines write their state
// through. Consumers define this interface, not the backing implementation.
type Medium interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// ErrNotFound is returned by Get when the key has never been written or has
// been deleted. Callers treat it as "use the default value", never as a fault.
var ErrNotFound = errors.New("key not found")
