// Package images decodes and caches the images that img nodes and
// background-image name.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"styledom/pkg/resource"
)

// Store resolves image names to decoded images. Names are URIs handed to
// the fetcher unless an image was added under that name.
type Store struct {
	fetch resource.Fetcher
	log   *zap.Logger

	mu     sync.RWMutex
	images map[string]image.Image
	group  singleflight.Group
}

// NewStore returns an empty store. fetch may be nil for a store that only
// serves added images.
func NewStore(fetch resource.Fetcher, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{fetch: fetch, log: log.Named("images"), images: map[string]image.Image{}}
}

// Add registers an already decoded image.
func (s *Store) Add(name string, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = img
}

// Len returns the number of cached images.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// Get returns the image called name, fetching and decoding it on first
// use. Concurrent requests for one name share a single load.
func (s *Store) Get(ctx context.Context, name string) (image.Image, error) {
	s.mu.RLock()
	img, ok := s.images[name]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}
	if s.fetch == nil {
		return nil, fmt.Errorf("image %q: not loaded", name)
	}
	v, err, _ := s.group.Do(name, func() (any, error) {
		body, _, err := s.fetch.Fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		img, format, err := image.Decode(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", name, err)
		}
		s.log.Debug("image decoded", zap.String("name", name), zap.String("format", format),
			zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
		s.Add(name, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Size returns the pixel size of an image.
func (s *Store) Size(ctx context.Context, name string) (width, height int, err error) {
	img, err := s.Get(ctx, name)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
