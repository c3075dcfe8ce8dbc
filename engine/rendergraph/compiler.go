package rendergraph

import (
	"fmt"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
)

// ExecutionStep is one resolved entry of a compiled ExecutionPlan
// (spec.md §4.7: "pass_config, pass_renderer, render_targets[],
// pass_position, pass_handle").
type ExecutionStep struct {
	Name         string
	Config       resources.RenderPassConfig
	Renderer     PassRenderer
	RenderTargets []handle.Handle
	Position     resources.PassPosition
	PassHandle   handle.Handle
}

// ExecutionPlan is the compiler's output: an ordered list of steps the
// executor walks in sequence.
type ExecutionPlan struct {
	Steps []ExecutionStep
}

// Compiler turns a Builder's declared passes into an ExecutionPlan,
// resolving render pass permutations against a RenderPassCache as it goes
// (spec.md §4.7).
type Compiler struct {
	passCache *RenderPassCache
}

// NewCompiler builds a compiler that resolves render passes against cache.
func NewCompiler(cache *RenderPassCache) *Compiler {
	return &Compiler{passCache: cache}
}

// Compile resolves b's declared passes into an ExecutionPlan. Compile is
// idempotent for an unchanged builder state and is expected to be rerun
// every frame (spec.md §4.7).
func (c *Compiler) Compile(b *Builder) (ExecutionPlan, error) {
	if len(b.passes) == 0 {
		return ExecutionPlan{}, nil
	}

	order, err := topologicalOrder(b)
	if err != nil {
		return ExecutionPlan{}, err
	}

	positions := assignPassPositions(order)

	steps := make([]ExecutionStep, 0, len(order))
	for _, node := range order {
		config := node.renderer.RenderPassConfig()
		position := positions[node]

		passHandle, err := c.passCache.GetHandleFor(config, position)
		if err != nil {
			return ExecutionPlan{}, fmt.Errorf("rendergraph: resolving render pass for %q: %w", node.name, err)
		}

		targets := make([]handle.Handle, 0, len(node.writes))
		for _, name := range node.writes {
			if h, ok := resolveTarget(b, name); ok {
				targets = append(targets, h)
			}
		}

		steps = append(steps, ExecutionStep{
			Name:          node.name,
			Config:        config,
			Renderer:      node.renderer,
			RenderTargets: targets,
			Position:      position,
			PassHandle:    passHandle,
		})
	}

	return ExecutionPlan{Steps: steps}, nil
}

// resolveTarget resolves a virtual resource name written by some pass to a
// concrete handle: imported names resolve directly; names produced by
// another pass in this frame have no externally-owned target yet (the pass
// renderer is responsible for creating/registering one via its own setup)
// and are skipped here.
func resolveTarget(b *Builder, name string) (handle.Handle, bool) {
	return b.ImportedTarget(name)
}

// topologicalOrder resolves producer/consumer dependencies per spec.md
// §4.7 steps 1-3: for every virtual resource name, every Write-access pass
// is a producer and every Read-access pass is a consumer; every
// (producer, consumer) pair of the same name adds a producer-before-
// consumer edge. Ties are broken by declaration order for determinism.
func topologicalOrder(b *Builder) ([]*passNode, error) {
	indexOf := make(map[*passNode]int, len(b.passes))
	for i, n := range b.passes {
		indexOf[n] = i
	}

	// adjacency: producer -> set of consumers it must precede.
	edges := make(map[*passNode]map[*passNode]bool)
	inDegree := make(map[*passNode]int, len(b.passes))
	for _, n := range b.passes {
		edges[n] = make(map[*passNode]bool)
		inDegree[n] = 0
	}

	for _, accessList := range b.accesses {
		var producers, consumers []*passNode
		for _, a := range accessList {
			if a.pass == AccessWrite {
				producers = append(producers, a.node)
			} else {
				consumers = append(consumers, a.node)
			}
		}
		for _, p := range producers {
			for _, cnode := range consumers {
				if p == cnode {
					continue
				}
				if !edges[p][cnode] {
					edges[p][cnode] = true
					inDegree[cnode]++
				}
			}
		}
	}

	// Kahn's algorithm, ties broken by original declaration order.
	var ready []*passNode
	for _, n := range b.passes {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var order []*passNode
	for len(ready) > 0 {
		// pick the lowest-declaration-index ready node for determinism.
		bestIdx := 0
		for i := 1; i < len(ready); i++ {
			if indexOf[ready[i]] < indexOf[ready[bestIdx]] {
				bestIdx = i
			}
		}
		n := ready[bestIdx]
		ready = append(ready[:bestIdx], ready[bestIdx+1:]...)
		order = append(order, n)

		for consumer := range edges[n] {
			inDegree[consumer]--
			if inDegree[consumer] == 0 {
				ready = append(ready, consumer)
			}
		}
	}

	if len(order) != len(b.passes) {
		core.LogError("rendergraph: cycle detected among %d passes, frame skipped", len(b.passes)-len(order))
		return nil, core.ErrGraphCycle
	}
	return order, nil
}

// assignPassPositions computes PassPosition per pass relative to
// viewport.color (spec.md §4.7 step 5): the sole writer that also presents
// is Standalone; otherwise the first writer is First, the last is Last,
// and everything between is Middle.
func assignPassPositions(order []*passNode) map[*passNode]resources.PassPosition {
	var writers []*passNode
	for _, n := range order {
		for _, w := range n.writes {
			if w == ViewportColor {
				writers = append(writers, n)
				break
			}
		}
	}

	positions := make(map[*passNode]resources.PassPosition, len(order))
	for _, n := range order {
		positions[n] = resources.PassPositionMiddle
	}

	switch len(writers) {
	case 0:
		// No pass writes the swapchain color target this frame; every
		// pass keeps the Middle default (e.g. an offscreen-only frame).
	case 1:
		positions[writers[0]] = resources.PassPositionStandalone
	default:
		positions[writers[0]] = resources.PassPositionFirst
		positions[writers[len(writers)-1]] = resources.PassPositionLast
		for _, n := range writers[1 : len(writers)-1] {
			positions[n] = resources.PassPositionMiddle
		}
	}
	return positions
}
