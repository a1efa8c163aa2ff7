package http

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"phishurl/ml"
)

type cachedPrediction struct {
	predictor  *ml.Predictor
	prediction ml.Prediction
}

// ModelStore holds the model being served. Readers never block: the current
// predictor sits behind an atomic pointer and is replaced wholesale.
type ModelStore struct {
	path     string
	current  atomic.Pointer[ml.Predictor]
	cache    *lru.Cache[string, cachedPrediction]
	logger   *zap.Logger
	debounce time.Duration
}

// NewModelStore creates an empty store for the artifact at path. A cacheSize
// of 0 disables prediction caching.
func NewModelStore(path string, cacheSize int, logger *zap.Logger) (*ModelStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ModelStore{path: path, logger: logger, debounce: 200 * time.Millisecond}
	if cacheSize > 0 {
		cache, err := lru.New[string, cachedPrediction](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Path returns the artifact path.
func (s *ModelStore) Path() string {
	return s.path
}

// Load reads the artifact at the store's path and swaps it in. A missing
// artifact leaves the store empty and returns the not-found error.
func (s *ModelStore) Load() error {
	model, err := ml.LoadModel(s.path)
	if err != nil {
		return err
	}
	s.Swap(model)
	return nil
}

// Swap installs model for all subsequent predictions and clears the cache.
func (s *ModelStore) Swap(model *ml.Model) {
	s.current.Store(ml.NewPredictor(model))
	if s.cache != nil {
		s.cache.Purge()
	}
	s.logger.Info("model loaded",
		zap.String("model", model.Name()),
		zap.Time("trained_at", model.TrainedAt),
	)
}

// Predictor returns nil until a model has been loaded.
func (s *ModelStore) Predictor() *ml.Predictor {
	return s.current.Load()
}

// Model returns the current model, or nil.
func (s *ModelStore) Model() *ml.Model {
	p := s.Predictor()
	if p == nil {
		return nil
	}
	return p.Model()
}

// Predict classifies url with the current model, consulting the cache first.
func (s *ModelStore) Predict(url string) (ml.Prediction, error) {
	p := s.Predictor()
	if p == nil {
		return ml.Prediction{}, ml.ErrNotTrained
	}
	if s.cache != nil {
		// Entries from a previous model are ignored even if a purge raced.
		if hit, ok := s.cache.Get(url); ok && hit.predictor == p {
			return hit.prediction, nil
		}
	}
	prediction, err := p.Predict(url)
	if err != nil {
		return ml.Prediction{}, err
	}
	if s.cache != nil {
		s.cache.Add(url, cachedPrediction{predictor: p, prediction: prediction})
	}
	return prediction, nil
}

// CacheLen returns the number of cached predictions.
func (s *ModelStore) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// Watch reloads the model whenever the artifact file is written or renamed
// into place. It watches the parent directory so atomic replacements are
// seen. Watch returns once the watcher is running; it stops with ctx.
func (s *ModelStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	go s.processEvents(ctx, watcher)
	return nil
}

func (s *ModelStore) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	target := filepath.Clean(s.path)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := s.Load(); err != nil {
				s.logger.Warn("model reload failed", zap.String("path", s.path), zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}
