// Package cache holds generated AI text (reminder emails, insights) so that
// repeating a request for the same invoice does not hit the backend again.
package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry, used when the session owner changes.
	Purge()
	Size() int
}

// Key joins an operation name and an identifier into a cache key.
func Key(op, id string) string {
	return op + ":" + id
}

// Nop is a cache that never stores anything.
type Nop[T any] struct{}

func (Nop[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (Nop[T]) Set(string, T) {}

func (Nop[T]) Delete(string) {}

func (Nop[T]) Purge() {}

func (Nop[T]) Size() int { return 0 }
