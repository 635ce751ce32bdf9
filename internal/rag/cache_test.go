package rag

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestIndexCache_ReusesHandle(t *testing.T) {
	b := &fakeBuilder{}
	c := NewIndexCache(b.Build, nil)

	h1, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	h2, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if h1 != h2 {
		t.Error("expected the identical cached handle")
	}
	if b.count() != 1 {
		t.Errorf("expected exactly one build, got %d", b.count())
	}
	h1.Release()
	h2.Release()
	if h1.BuiltAt().IsZero() {
		t.Error("expected build time to be set")
	}
}

func TestIndexCache_SeparateCredentials(t *testing.T) {
	b := &fakeBuilder{}
	c := NewIndexCache(b.Build, nil)

	h1, _ := c.GetOrBuild(context.Background(), "sk-one")
	h2, _ := c.GetOrBuild(context.Background(), "sk-two")
	if h1 == h2 {
		t.Error("different credentials must get different handles")
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 cached handles, got %d", c.Len())
	}
}

func TestIndexCache_DoesNotCacheFailures(t *testing.T) {
	boom := errors.New("persist directory missing")
	b := &fakeBuilder{err: boom}
	c := NewIndexCache(b.Build, nil)

	if _, err := c.GetOrBuild(context.Background(), "sk-good"); !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed build must not be cached, got %d handles", c.Len())
	}

	b.mu.Lock()
	b.err = nil
	b.mu.Unlock()

	h, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	h.Release()
	if b.count() != 2 {
		t.Errorf("expected retry to build again, got %d builds", b.count())
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached handle, got %d", c.Len())
	}
}

func TestIndexCache_ConcurrentBuildsCoalesce(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	builds := 0
	c := NewIndexCache(func(context.Context, string) (Index, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		<-release
		return &fakeIndex{}, nil
	}, nil)

	const n = 16
	handles := make([]*IndexHandle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.GetOrBuild(context.Background(), "sk-good")
			if err != nil {
				t.Errorf("GetOrBuild: %v", err)
				return
			}
			handles[i] = h
			h.Release()
		}(i)
	}
	close(release)
	wg.Wait()

	if builds != 1 {
		t.Errorf("expected one build, got %d", builds)
	}
	for i := 1; i < n; i++ {
		if handles[i] != handles[0] {
			t.Fatalf("handle %d differs from handle 0", i)
		}
	}
}

func TestIndexCache_Invalidate(t *testing.T) {
	idx := &fakeIndex{}
	b := &fakeBuilder{index: idx}
	c := NewIndexCache(b.Build, nil)

	h, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatal(err)
	}
	h.Release()
	c.Invalidate("sk-good")
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
	if !idx.isClosed() {
		t.Error("expected invalidated index to be closed")
	}

	c.Invalidate("sk-unknown")

	h, err = c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatal(err)
	}
	h.Release()
	if b.count() != 2 {
		t.Errorf("expected rebuild after invalidation, got %d builds", b.count())
	}
}

func TestIndexCache_Close(t *testing.T) {
	idx := &fakeIndex{}
	c := NewIndexCache((&fakeBuilder{index: idx}).Build, nil)
	h, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatal(err)
	}
	h.Release()
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 || !idx.isClosed() {
		t.Error("expected Close to empty the cache and close handles")
	}
}

func TestIndexCache_InvalidateWaitsForRelease(t *testing.T) {
	idx := &fakeIndex{}
	c := NewIndexCache((&fakeBuilder{index: idx}).Build, nil)

	h1, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatal(err)
	}

	c.Invalidate("sk-good")
	if c.Len() != 0 {
		t.Errorf("expected evicted handle to leave the cache, got %d", c.Len())
	}
	if idx.isClosed() {
		t.Fatal("index closed while still referenced")
	}

	h1.Release()
	if idx.isClosed() {
		t.Fatal("index closed while one reference remains")
	}
	h2.Release()
	if !idx.isClosed() {
		t.Error("expected index to close on the last release")
	}
}

func TestIndexCache_CloseWaitsForRelease(t *testing.T) {
	idx := &fakeIndex{}
	c := NewIndexCache((&fakeBuilder{index: idx}).Build, nil)

	h, err := c.GetOrBuild(context.Background(), "sk-good")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if idx.isClosed() {
		t.Fatal("index closed while still referenced")
	}
	h.Release()
	if !idx.isClosed() {
		t.Error("expected index to close on release after Close")
	}
}

func TestIndexCache_BuildSurvivesCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewIndexCache(func(ctx context.Context, _ string) (Index, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &fakeIndex{}, nil
	}, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		h, err := c.GetOrBuild(firstCtx, "sk-good")
		if err == nil {
			h.Release()
		}
		firstErr <- err
	}()

	<-started
	waiterErr := make(chan error, 1)
	go func() {
		h, err := c.GetOrBuild(context.Background(), "sk-good")
		if err == nil {
			h.Release()
		}
		waiterErr <- err
	}()

	cancel()
	close(release)

	if err := <-waiterErr; err != nil {
		t.Errorf("waiter must not inherit the first caller's cancellation: %v", err)
	}
	if err := <-firstErr; err != nil {
		t.Errorf("a build that completed must not fail on the caller's cancellation: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected the shared build to be cached, got %d handles", c.Len())
	}
}
