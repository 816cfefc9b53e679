// Package cache holds short-lived NewsAPI responses in their canonical
// encoded form so that every backend stores the same bytes.
package cache

import "time"

// Cache defines the interface for cache backends
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	SetWithTTL(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Clear()
}
