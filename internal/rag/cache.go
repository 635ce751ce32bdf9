package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"smartwaste/internal/helper"
	"smartwaste/internal/metrics"
	"smartwaste/internal/models"
)

// Index is an opened vector index that embeds queries with the credential it
// was opened for.
type Index interface {
	Search(ctx context.Context, query string, topK int) ([]models.Source, error)
	Close() error
}

// BuildFunc opens the configured index with an embedding function bound to credential.
type BuildFunc func(ctx context.Context, credential string) (Index, error)

// IndexHandle is an index plus the credential it is bound to. It is owned by
// the IndexCache; callers hold a reference from GetOrBuild until Release, and
// the index is closed only once it is evicted and no reference remains.
type IndexHandle struct {
	index      Index
	credential string
	builtAt    time.Time

	mu      sync.Mutex
	refs    int
	evicted bool
	closed  bool
}

func (h *IndexHandle) Index() Index {
	return h.index
}

func (h *IndexHandle) BuiltAt() time.Time {
	return h.builtAt
}

// Release returns a reference obtained from GetOrBuild.
func (h *IndexHandle) Release() {
	h.mu.Lock()
	h.refs--
	closeNow := h.evicted && h.refs == 0 && !h.closed
	if closeNow {
		h.closed = true
	}
	h.mu.Unlock()

	if closeNow {
		h.closeIndex()
	}
}

func (h *IndexHandle) tryAcquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.refs++
	return true
}

// evict marks the handle as dropped from the cache and closes it if unused.
func (h *IndexHandle) evict() error {
	h.mu.Lock()
	h.evicted = true
	closeNow := h.refs == 0 && !h.closed
	if closeNow {
		h.closed = true
	}
	h.mu.Unlock()

	if !closeNow {
		return nil
	}
	return h.closeIndex()
}

func (h *IndexHandle) closeIndex() error {
	err := h.index.Close()
	if err != nil {
		log.Warn().Err(err).Msg("Error closing index handle")
	}
	return err
}

// IndexCache maps a credential hash to its IndexHandle. Failed builds are
// never stored.
type IndexCache struct {
	build   BuildFunc
	metrics *metrics.Metrics

	mu      sync.Mutex
	handles map[string]*IndexHandle
	group   singleflight.Group
}

func NewIndexCache(build BuildFunc, m *metrics.Metrics) *IndexCache {
	if m == nil {
		m = metrics.New(nil)
	}
	return &IndexCache{
		build:   build,
		metrics: m,
		handles: make(map[string]*IndexHandle),
	}
}

// GetOrBuild returns the cached handle for credential, building it on a miss,
// with one reference held for the caller. Concurrent misses for the same
// credential share one build, which does not inherit the caller's cancellation.
func (c *IndexCache) GetOrBuild(ctx context.Context, credential string) (*IndexHandle, error) {
	key := helper.HashSecret(credential)
	for {
		if h := c.acquire(key); h != nil {
			return h, nil
		}

		v, err, shared := c.group.Do(key, func() (any, error) {
			c.mu.Lock()
			h := c.handles[key]
			c.mu.Unlock()
			if h != nil {
				return h, nil
			}

			start := time.Now()
			idx, err := c.build(context.WithoutCancel(ctx), credential)
			if err != nil {
				c.metrics.IndexBuilds.WithLabelValues("error").Inc()
				return nil, err
			}
			c.metrics.IndexBuilds.WithLabelValues("success").Inc()

			h = &IndexHandle{index: idx, credential: credential, builtAt: time.Now()}
			c.mu.Lock()
			c.handles[key] = h
			c.metrics.CachedHandles.Set(float64(len(c.handles)))
			c.mu.Unlock()

			log.Info().
				Str("key", helper.MaskSecret(credential)).
				Dur("took", time.Since(start)).
				Msg("Built index handle")
			return h, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build index handle: %w", err)
		}
		if shared {
			log.Debug().Str("key", helper.MaskSecret(credential)).Msg("Shared in-flight index build")
		}

		// evicted and closed between the build and this caller's acquire
		if h := v.(*IndexHandle); h.tryAcquire() {
			return h, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed to build index handle: %w", err)
		}
	}
}

// Invalidate drops the handle for credential, if any. The index is closed
// once every in-flight user has released it.
func (c *IndexCache) Invalidate(credential string) {
	key := helper.HashSecret(credential)
	c.group.Forget(key)

	c.mu.Lock()
	h, ok := c.handles[key]
	delete(c.handles, key)
	c.metrics.CachedHandles.Set(float64(len(c.handles)))
	c.mu.Unlock()

	if !ok {
		return
	}
	h.evict()
	log.Debug().Str("key", helper.MaskSecret(credential)).Msg("Invalidated index handle")
}

// Len returns the number of cached handles.
func (c *IndexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Close evicts every cached handle and empties the cache. Handles still in use
// are closed on their last Release.
func (c *IndexCache) Close() error {
	c.mu.Lock()
	handles := c.handles
	c.handles = make(map[string]*IndexHandle)
	c.metrics.CachedHandles.Set(0)
	c.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := h.evict(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// acquire returns the cached handle for key with a reference taken, or nil.
func (c *IndexCache) acquire(key string) *IndexHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.handles[key]
	if h == nil || !h.tryAcquire() {
		return nil
	}
	return h
}
