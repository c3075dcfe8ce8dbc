package rendergraph

import (
	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// Executor drives the RHI through a compiled ExecutionPlan, one step at a
// time (spec.md §4.8).
type Executor struct {
	rhi       rhi.RHI
	passCache *RenderPassCache
}

// NewExecutor builds an executor bound to backend and the render pass
// cache used to resolve each step's signature for its pass renderer.
func NewExecutor(backend rhi.RHI, passCache *RenderPassCache) *Executor {
	return &Executor{rhi: backend, passCache: passCache}
}

// Execute walks plan in order. An empty plan logs and returns immediately,
// issuing no RHI calls (spec.md §8 scenario 1).
func (e *Executor) Execute(plan ExecutionPlan, frame FrameData) error {
	if len(plan.Steps) == 0 {
		core.LogDebug("rendergraph: empty execution plan, nothing to render this frame")
		return nil
	}

	for _, step := range plan.Steps {
		if err := e.rhi.BeginRenderPass(step.PassHandle, step.RenderTargets); err != nil {
			core.LogError("rendergraph: begin render pass %q: %s", step.Name, err.Error())
			return err
		}

		rp, err := e.passCache.GetPointerFor(step.PassHandle)
		signature := step.Config.DeriveSignature()
		if err == nil {
			signature = rp.Signature
		}

		ctx := PassContext{
			RHI:              e.rhi,
			Frame:            frame,
			CurrentPass:      step.PassHandle,
			CurrentSignature: signature,
		}
		if err := step.Renderer.Execute(ctx); err != nil {
			core.LogError("rendergraph: execute pass %q: %s", step.Name, err.Error())
		}

		if err := e.rhi.EndRenderPass(); err != nil {
			core.LogError("rendergraph: end render pass %q: %s", step.Name, err.Error())
			return err
		}
	}
	return nil
}
