package rendergraph

import (
	"errors"
	"testing"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/resources"
)

func TestRenderPassCacheDeterminismForEqualKeys(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	config := resources.RenderPassConfig{
		Name: "forward",
		Type: resources.RenderPassForwardOpaque,
		Attachments: []resources.AttachmentConfig{
			{Name: "color", Format: resources.FormatRGBA8Unorm},
		},
	}

	h1, err := cache.GetHandleFor(config, resources.PassPositionStandalone)
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	h2, err := cache.GetHandleFor(config, resources.PassPositionStandalone)
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected two requests with equal (config, position) to return the same handle")
	}
}

func TestRenderPassCacheDistinctPositionsGetDistinctHandles(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	config := resources.RenderPassConfig{Name: "forward", Type: resources.RenderPassForwardOpaque}

	h1, err := cache.GetHandleFor(config, resources.PassPositionFirst)
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	h2, err := cache.GetHandleFor(config, resources.PassPositionLast)
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct positions to yield distinct cache entries")
	}
}

func TestRenderPassCacheCapacityExhaustedReturnsInvalidHandle(t *testing.T) {
	cache := NewRenderPassCache(1, &fakeRHI{})

	_, err := cache.GetHandleFor(resources.RenderPassConfig{Name: "a"}, resources.PassPositionStandalone)
	if err != nil {
		t.Fatalf("GetHandleFor first: %v", err)
	}
	_, err = cache.GetHandleFor(resources.RenderPassConfig{Name: "b"}, resources.PassPositionStandalone)
	if !errors.Is(err, core.ErrCapacityExhausted) {
		t.Fatalf("expected ErrCapacityExhausted once the single slot is used, got %v", err)
	}
}

func TestRenderPassCacheInvalidateClearsEntries(t *testing.T) {
	backend := &fakeRHI{}
	cache := NewRenderPassCache(8, backend)
	config := resources.RenderPassConfig{Name: "forward"}

	h1, err := cache.GetHandleFor(config, resources.PassPositionStandalone)
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	cache.Invalidate()

	h2, err := cache.GetHandleFor(config, resources.PassPositionStandalone)
	if err != nil {
		t.Fatalf("GetHandleFor after invalidate: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected a fresh handle after Invalidate, got the same one")
	}
}
