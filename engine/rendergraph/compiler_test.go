package rendergraph

import (
	"errors"
	"testing"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
)

func TestCompileEmptyPlanHasNoSteps(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	compiler := NewCompiler(cache)

	b := NewBuilder()
	plan, err := compiler.Compile(b)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Steps) != 0 {
		t.Fatalf("expected an empty plan, got %d steps", len(plan.Steps))
	}
}

func TestCompileSinglePassWritesColorIsStandalone(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	compiler := NewCompiler(cache)

	b := NewBuilder()
	b.ImportRenderTarget(ViewportColor, testHandle(1))
	b.AddPass("forward", &stubPassRenderer{
		setup: func(b *Builder) { b.WritesToColorBuffer() },
		config: resources.RenderPassConfig{Name: "forward", Type: resources.RenderPassForwardOpaque},
	})

	plan, err := compiler.Compile(b)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan.Steps))
	}
	step := plan.Steps[0]
	if step.Position != resources.PassPositionStandalone {
		t.Fatalf("expected Standalone, got %v", step.Position)
	}
	if len(step.RenderTargets) != 1 || step.RenderTargets[0] != testHandle(1) {
		t.Fatalf("expected bound targets [viewport.color], got %v", step.RenderTargets)
	}
}

func TestCompileTwoPassesColorThenUIOrdersFirstLast(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	compiler := NewCompiler(cache)

	b := NewBuilder()
	b.ImportRenderTarget(ViewportColor, testHandle(1))
	b.ImportRenderTarget(ViewportDepth, testHandle(2))

	passA := &stubPassRenderer{
		setup: func(b *Builder) {
			b.WritesToColorBuffer()
			b.WritesToDepthBuffer()
		},
		config: resources.RenderPassConfig{Name: "A", Type: resources.RenderPassForwardOpaque},
	}
	passB := &stubPassRenderer{
		setup: func(b *Builder) {
			b.ReadsFromColorBuffer()
			b.WritesToColorBuffer()
		},
		config: resources.RenderPassConfig{Name: "B", Type: resources.RenderPassUI},
	}
	b.AddPass("A", passA)
	b.AddPass("B", passB)

	plan, err := compiler.Compile(b)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Name != "A" || plan.Steps[1].Name != "B" {
		t.Fatalf("expected order [A, B], got [%s, %s]", plan.Steps[0].Name, plan.Steps[1].Name)
	}
	if plan.Steps[0].Position != resources.PassPositionFirst {
		t.Fatalf("expected A to be First, got %v", plan.Steps[0].Position)
	}
	if plan.Steps[1].Position != resources.PassPositionLast {
		t.Fatalf("expected B to be Last, got %v", plan.Steps[1].Position)
	}
}

func TestCompileCycleFailsWithGraphCycle(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	compiler := NewCompiler(cache)

	b := NewBuilder()
	passA := &stubPassRenderer{
		setup: func(b *Builder) {
			b.WritesTo("intermediate.a")
			b.ReadsFrom("intermediate.b")
		},
		config: resources.RenderPassConfig{Name: "A"},
	}
	passB := &stubPassRenderer{
		setup: func(b *Builder) {
			b.WritesTo("intermediate.b")
			b.ReadsFrom("intermediate.a")
		},
		config: resources.RenderPassConfig{Name: "B"},
	}
	b.AddPass("A", passA)
	b.AddPass("B", passB)

	_, err := compiler.Compile(b)
	if !errors.Is(err, core.ErrGraphCycle) {
		t.Fatalf("expected ErrGraphCycle, got %v", err)
	}
}

func TestCompileTopologicalOrderRespectsProducerConsumerEdges(t *testing.T) {
	cache := NewRenderPassCache(8, &fakeRHI{})
	compiler := NewCompiler(cache)

	b := NewBuilder()
	// Declared in reverse dependency order, so a stable declaration-order
	// tiebreak alone would get this wrong -- only the edge enforces it.
	consumer := &stubPassRenderer{
		setup:  func(b *Builder) { b.ReadsFrom("shadow.map") },
		config: resources.RenderPassConfig{Name: "consumer"},
	}
	producer := &stubPassRenderer{
		setup:  func(b *Builder) { b.WritesTo("shadow.map") },
		config: resources.RenderPassConfig{Name: "producer"},
	}
	b.AddPass("consumer", consumer)
	b.AddPass("producer", producer)

	plan, err := compiler.Compile(b)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	indexOf := make(map[string]int)
	for i, s := range plan.Steps {
		indexOf[s.Name] = i
	}
	if indexOf["producer"] >= indexOf["consumer"] {
		t.Fatalf("expected producer before consumer, got order %v", plan.Steps)
	}
}

func TestCompileReusesRenderPassCacheAcrossFrames(t *testing.T) {
	backend := &fakeRHI{}
	cache := NewRenderPassCache(8, backend)
	compiler := NewCompiler(cache)

	makeBuilder := func() *Builder {
		b := NewBuilder()
		b.ImportRenderTarget(ViewportColor, testHandle(1))
		b.AddPass("forward", &stubPassRenderer{
			setup:  func(b *Builder) { b.WritesToColorBuffer() },
			config: resources.RenderPassConfig{Name: "forward", Type: resources.RenderPassForwardOpaque},
		})
		return b
	}

	plan1, err := compiler.Compile(makeBuilder())
	if err != nil {
		t.Fatalf("Compile frame 1: %v", err)
	}
	plan2, err := compiler.Compile(makeBuilder())
	if err != nil {
		t.Fatalf("Compile frame 2: %v", err)
	}
	if plan1.Steps[0].PassHandle != plan2.Steps[0].PassHandle {
		t.Fatalf("expected equal (config, position) to resolve to the same cached render pass handle across frames")
	}
}

func testHandle(index uint32) handle.Handle {
	return handle.Handle{Index: index, Generation: 1}
}
