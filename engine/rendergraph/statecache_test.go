package rendergraph

import (
	"errors"
	"testing"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/resources"
)

func TestRenderStateCacheDeterminismForEqualKeys(t *testing.T) {
	cache := NewRenderStateCache(8, &fakeRHI{})
	cache.Register(resources.RenderStateConfig{
		Name:          "opaque-lit",
		MaterialClass: resources.MaterialClassStandard,
		PassType:      resources.RenderPassForwardOpaque,
		VertexFormat:  resources.VertexFormatPositionNormalUV,
	})
	sig := resources.RenderPassSignature{ColorFormats: []resources.TextureFormat{resources.FormatRGBA8Unorm}}

	h1, err := cache.GetHandleFor(resources.MaterialClassStandard, resources.RenderPassForwardOpaque, resources.VertexFormatPositionNormalUV, sig, testHandle(1))
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	h2, err := cache.GetHandleFor(resources.MaterialClassStandard, resources.RenderPassForwardOpaque, resources.VertexFormatPositionNormalUV, sig, testHandle(1))
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected equal (class, passType, vertexFormat, signature) to return the same handle")
	}
}

func TestRenderStateCacheMissingRecipeReturnsNotFound(t *testing.T) {
	cache := NewRenderStateCache(8, &fakeRHI{})
	_, err := cache.GetHandleFor(resources.MaterialClassUI, resources.RenderPassUI, resources.VertexFormatPositionUV, resources.RenderPassSignature{}, testHandle(1))
	if !errors.Is(err, core.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound for an unregistered recipe, got %v", err)
	}
}

func TestRenderStateCacheDistinctSignaturesGetDistinctHandles(t *testing.T) {
	cache := NewRenderStateCache(8, &fakeRHI{})
	cache.Register(resources.RenderStateConfig{
		MaterialClass: resources.MaterialClassStandard,
		PassType:      resources.RenderPassForwardOpaque,
		VertexFormat:  resources.VertexFormatPositionNormalUV,
	})

	sigColorOnly := resources.RenderPassSignature{ColorFormats: []resources.TextureFormat{resources.FormatRGBA8Unorm}}
	depthFormat := resources.FormatD32Float
	sigWithDepth := resources.RenderPassSignature{
		ColorFormats: []resources.TextureFormat{resources.FormatRGBA8Unorm},
		DepthFormat:  &depthFormat,
	}

	h1, err := cache.GetHandleFor(resources.MaterialClassStandard, resources.RenderPassForwardOpaque, resources.VertexFormatPositionNormalUV, sigColorOnly, testHandle(1))
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	h2, err := cache.GetHandleFor(resources.MaterialClassStandard, resources.RenderPassForwardOpaque, resources.VertexFormatPositionNormalUV, sigWithDepth, testHandle(1))
	if err != nil {
		t.Fatalf("GetHandleFor: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct pass signatures to yield distinct cached render states")
	}
}
