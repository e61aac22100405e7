package profiles

import (
	"context"
	"strings"
	"testing"
	"time"

	"TradeMirror/internal/domain/models"
	pkgcache "TradeMirror/pkg/cache"
)

func TestStaticVectorKnown(t *testing.T) {
	s := NewStaticSource()
	v, err := s.Vector(context.Background(), "active_scalper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TradeFrequency != 0.9 {
		t.Fatalf("trade_frequency=%v, want 0.9", v.TradeFrequency)
	}
}

func TestStaticVectorUnknown(t *testing.T) {
	s := NewStaticSource()
	_, err := s.Vector(context.Background(), "day_gambler")
	if err == nil {
		t.Fatalf("expected error for unknown profile")
	}
	if !strings.Contains(err.Error(), "unknown reference profile") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStaticProfilesCopy(t *testing.T) {
	s := NewStaticSource()
	ps, err := s.Profiles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ps) == 0 {
		t.Fatalf("expected built-in profiles")
	}
	ps[0].Name = "mutated"
	again, _ := s.Profiles(context.Background())
	if again[0].Name == "mutated" {
		t.Fatalf("built-in profiles should not be caller-mutable")
	}
}

type countingSource struct {
	inner *StaticSource
	calls int
}

func (c *countingSource) Profiles(ctx context.Context) ([]models.ReferenceProfile, error) {
	c.calls++
	return c.inner.Profiles(ctx)
}

func (c *countingSource) Vector(ctx context.Context, name string) (models.StyleVector, error) {
	return c.inner.Vector(ctx, name)
}

func TestCachedSourceServesFromCache(t *testing.T) {
	inner := &countingSource{inner: NewStaticSource()}
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(8))
	defer mem.Close()
	src := NewCachedSource(inner, mem, time.Minute)

	ctx := context.Background()
	first, err := src.Profiles(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := src.Profiles(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("cached list differs: %d vs %d", len(first), len(second))
	}
}

func TestCachedSourceVector(t *testing.T) {
	inner := &countingSource{inner: NewStaticSource()}
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(8))
	defer mem.Close()
	src := NewCachedSource(inner, mem, time.Minute)

	ctx := context.Background()
	if _, err := src.Vector(ctx, "patient_value"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.Vector(ctx, "nope"); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.calls)
	}
}
