package tiles

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rotblauer/elevd/common"
	"github.com/rotblauer/elevd/metrics"
	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/raster"
	"github.com/rotblauer/elevd/testing/fixtures"
	"github.com/rotblauer/elevd/types/bounds"
)

var tileA = fixtures.PlaneTile("a", bounds.Bounds{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10}, 11)
var tileB = fixtures.PlaneTile("b", bounds.Bounds{MinLat: 10, MaxLat: 20, MinLng: 0, MaxLng: 10}, 11)

func init() {
	common.SlogResetLevel(slog.LevelWarn + 1)
}

func newTestLoader(t *testing.T, src *fixtures.Source, size int) (*Loader, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	cfg := params.DefaultLoaderConfig()
	cfg.TileCacheSize = size
	l, err := NewLoader(cfg, src, reg)
	if err != nil {
		t.Fatal(err)
	}
	return l, reg
}

func TestLoader_CacheHit(t *testing.T) {
	src := fixtures.NewSource(tileA)
	l, reg := newTestLoader(t, src, 4)
	ctx := context.Background()

	first, err := l.Load(ctx, tileA.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.Load(ctx, tileA.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected the cached record to be returned")
	}
	if n := src.Opens("a"); n != 1 {
		t.Errorf("expected 1 open, got %d", n)
	}
	if hits := reg.Count(metrics.TileCacheHits); hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", hits)
	}
	if first.Meta.Width != 11 || first.Meta.BBox != tileA.Descriptor.Bounds {
		t.Errorf("unexpected meta %+v", first.Meta)
	}
}

func TestLoader_ConcurrentLoadsShareOneOpen(t *testing.T) {
	src := fixtures.NewSource(tileA)
	src.Delay = 50 * time.Millisecond
	l, _ := newTestLoader(t, src, 4)

	const n = 16
	records := make([]*Record, n)
	errs := make([]error, n)
	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i], errs[i] = l.Load(context.Background(), tileA.Descriptor)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("load %d: %v", i, errs[i])
		}
		if records[i] != records[0] {
			t.Errorf("load %d returned a different record", i)
		}
	}
	if got := src.Opens("a"); got != 1 {
		t.Errorf("expected 1 open, got %d", got)
	}
}

func TestLoader_FailureNotCached(t *testing.T) {
	src := fixtures.NewSource(tileA)
	src.Fail("a", true)
	l, reg := newTestLoader(t, src, 4)
	ctx := context.Background()

	if _, err := l.Load(ctx, tileA.Descriptor); !errors.Is(err, fixtures.ErrInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if l.Cached("a") {
		t.Fatal("failed load must not be cached")
	}
	if got := reg.Count(metrics.TileLoadFailures); got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}

	src.Fail("a", false)
	if _, err := l.Load(ctx, tileA.Descriptor); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := src.Opens("a"); got != 2 {
		t.Errorf("expected the retry to open again, got %d opens", got)
	}
}

func TestLoader_CallerCancel(t *testing.T) {
	src := fixtures.NewSource(tileA)
	src.Delay = 100 * time.Millisecond
	l, _ := newTestLoader(t, src, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Load(ctx, tileA.Descriptor); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// The shared load keeps going and lands in the cache.
	rec, err := l.Load(context.Background(), tileA.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || src.Opens("a") != 1 {
		t.Errorf("expected the abandoned load to be reused, opens=%d", src.Opens("a"))
	}
}

func TestLoader_LoadTimeout(t *testing.T) {
	src := fixtures.NewSource(tileA)
	src.Delay = time.Second
	reg := metrics.NewRegistry()
	l, err := NewLoader(params.LoaderConfig{TileCacheSize: 2, LoadTimeout: 20 * time.Millisecond}, src, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), tileA.Descriptor); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected load timeout, got %v", err)
	}
}

func TestLoader_EvictionAndClear(t *testing.T) {
	src := fixtures.NewSource(tileA, tileB)
	l, _ := newTestLoader(t, src, 1)
	ctx := context.Background()

	a, err := l.Load(ctx, tileA.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	a.Release()
	b, err := l.Load(ctx, tileB.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	b.Release()
	if l.Cached("a") || !l.Cached("b") || l.Len() != 1 {
		t.Errorf("expected only b cached, len=%d", l.Len())
	}
	if _, err := a.Reader.ReadWindow(ctx, raster.Bounds(a.Meta)); !errors.Is(err, raster.ErrClosed) {
		t.Errorf("expected unreferenced evicted reader to be closed, got %v", err)
	}

	l.Clear()
	if l.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", l.Len())
	}
	if _, err := l.Load(ctx, tileB.Descriptor); err != nil {
		t.Fatal(err)
	}
	if got := src.Opens("b"); got != 2 {
		t.Errorf("expected b to be reopened after Clear, got %d opens", got)
	}
}

func TestLoader_EvictWhileHeld(t *testing.T) {
	src := fixtures.NewSource(tileA, tileB)
	l, _ := newTestLoader(t, src, 1)
	ctx := context.Background()

	a, err := l.Load(ctx, tileA.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Load(ctx, tileB.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()
	if l.Cached("a") {
		t.Fatal("expected a to be evicted")
	}

	// a is still referenced, so its reader stays open.
	got, err := a.Reader.ReadWindow(ctx, image.Rect(0, 0, 2, 1))
	if err != nil {
		t.Fatalf("read from held record after eviction: %v", err)
	}
	if got[0] != fixtures.Plane(0, 0) || got[1] != fixtures.Plane(1, 0) {
		t.Errorf("unexpected samples %v", got)
	}

	a.Release()
	if _, err := a.Reader.ReadWindow(ctx, image.Rect(0, 0, 1, 1)); !errors.Is(err, raster.ErrClosed) {
		t.Errorf("expected reader closed after the last release, got %v", err)
	}

	// A fresh load reopens rather than reusing the closed record.
	again, err := l.Load(ctx, tileA.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Release()
	if again == a || src.Opens("a") != 2 {
		t.Errorf("expected a to be reopened, opens=%d", src.Opens("a"))
	}
}

func TestLoader_ConcurrentEviction(t *testing.T) {
	tileC := fixtures.PlaneTile("c", bounds.Bounds{MinLat: 20, MaxLat: 30, MinLng: 0, MaxLng: 10}, 11)
	descs := fixtures.Descriptors(tileA, tileB, tileC)
	src := fixtures.NewSource(tileA, tileB, tileC)
	l, _ := newTestLoader(t, src, 1)

	wg := sync.WaitGroup{}
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := l.Load(context.Background(), descs[i%len(descs)])
			if err != nil {
				errs <- err
				return
			}
			defer rec.Release()
			if _, err := rec.Reader.ReadWindow(context.Background(), raster.Bounds(rec.Meta)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("read under eviction: %v", err)
	}
}
