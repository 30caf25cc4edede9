package vlm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/veridict/internal/cache"
	"github.com/ppiankov/veridict/internal/model"
)

// AttributeSource supplies the structured visual attributes for a sample.
// The rule engine only consumes the schema; where the attributes come from —
// record metadata or a captioning model — is this interface's concern.
type AttributeSource interface {
	Attributes(ctx context.Context, sample model.Sample) (model.VisualAttributes, error)
}

// MetaSource reads attributes from the sample record's Meta_* columns.
// This is the default source: hand-authored or ground-truth metadata.
type MetaSource struct{}

// Attributes assembles the record's metadata, defaulting absent fields to
// Unknown. It never fails.
func (MetaSource) Attributes(ctx context.Context, sample model.Sample) (model.VisualAttributes, error) {
	return sample.Attributes(), nil
}

// CaptionSource derives attributes from the image via a captioning model,
// with optional caching keyed by model and image path. On captioner failure
// it falls back to the record's metadata so the logic channel degrades
// rather than disappears.
type CaptionSource struct {
	captioner Captioner
	store     cache.Cache
	ttl       time.Duration
}

// NewCaptionSource wraps a captioner. A nil store disables caching.
func NewCaptionSource(c Captioner, store cache.Cache, ttl time.Duration) *CaptionSource {
	return &CaptionSource{captioner: c, store: store, ttl: ttl}
}

// Attributes captions the sample's image, consulting the cache first.
func (s *CaptionSource) Attributes(ctx context.Context, sample model.Sample) (model.VisualAttributes, error) {
	key := cache.CaptionKey(s.captioner.Name(), sample.ImagePath)

	if s.store != nil {
		if data, found := s.store.Get(key); found {
			var attrs model.VisualAttributes
			if err := json.Unmarshal(data, &attrs); err == nil {
				return attrs.Normalize(), nil
			}
			_ = s.store.Delete(key)
		}
	}

	attrs, err := s.captioner.Caption(ctx, sample.ImagePath)
	if err != nil {
		return sample.Attributes(), err
	}
	attrs = attrs.Normalize()

	if s.store != nil {
		if data, err := json.Marshal(attrs); err == nil {
			_ = s.store.Set(key, data, s.ttl)
		}
	}

	return attrs, nil
}
