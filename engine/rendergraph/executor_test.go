package rendergraph

import (
	"testing"

	"github.com/voidarchitect/corevk/engine/resources"
)

func TestExecutorEmptyPlanIssuesNoRHICalls(t *testing.T) {
	backend := &fakeRHI{}
	cache := NewRenderPassCache(8, backend)
	executor := NewExecutor(backend, cache)

	if err := executor.Execute(ExecutionPlan{}, FrameData{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if backend.renderPassCalls != 0 {
		t.Fatalf("expected no BeginRenderPass calls for an empty plan, got %d", backend.renderPassCalls)
	}
}

func TestExecutorWalksEachStepAndCallsExecute(t *testing.T) {
	backend := &fakeRHI{}
	cache := NewRenderPassCache(8, backend)
	compiler := NewCompiler(cache)
	executor := NewExecutor(backend, cache)

	b := NewBuilder()
	b.ImportRenderTarget(ViewportColor, testHandle(1))
	renderer := &stubPassRenderer{
		setup:  func(b *Builder) { b.WritesToColorBuffer() },
		config: resources.RenderPassConfig{Name: "forward"},
	}
	b.AddPass("forward", renderer)

	plan, err := compiler.Compile(b)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := executor.Execute(plan, FrameData{DeltaTime: 0.016}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if backend.renderPassCalls != 1 {
		t.Fatalf("expected 1 BeginRenderPass call, got %d", backend.renderPassCalls)
	}
	if renderer.executed != 1 {
		t.Fatalf("expected the pass renderer's Execute to run once, got %d", renderer.executed)
	}
}

func TestExecutorContinuesAfterAPassRendererError(t *testing.T) {
	backend := &fakeRHI{}
	cache := NewRenderPassCache(8, backend)
	compiler := NewCompiler(cache)
	executor := NewExecutor(backend, cache)

	b := NewBuilder()
	b.ImportRenderTarget(ViewportColor, testHandle(1))
	failing := &stubPassRenderer{
		setup:      func(b *Builder) { b.WritesToColorBuffer() },
		config:     resources.RenderPassConfig{Name: "forward"},
		executeErr: errTestRendererFailed,
	}
	b.AddPass("forward", failing)

	plan, err := compiler.Compile(b)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// A single failing pass renderer logs and continues to EndRenderPass
	// rather than aborting the whole frame; Execute itself only returns an
	// error for RHI-level failures (begin/end render pass).
	if err := executor.Execute(plan, FrameData{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if failing.executed != 1 {
		t.Fatalf("expected the failing pass renderer to still run once, got %d", failing.executed)
	}
}

var errTestRendererFailed = &testError{"pass renderer failed"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
