package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching provider scores and captions
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ScoreKey generates a cache key for one provider's score of an
// (image, text) pair. Keys are plain hex so they double as file names.
func ScoreKey(provider, imagePath, text string) string {
	hash := sha256.Sum256([]byte(provider + "\x00" + imagePath + "\x00" + text))
	return "score-v1-" + hex.EncodeToString(hash[:])
}

// CaptionKey generates a cache key for a VLM caption of an image.
func CaptionKey(model, imagePath string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + imagePath))
	return "caption-v1-" + hex.EncodeToString(hash[:])
}
