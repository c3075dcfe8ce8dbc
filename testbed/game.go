// Package testbed is a minimal application exercising the engine's full
// pipeline end to end: one forward-opaque pass drawing one mesh with the
// default material, driven through the render graph builder/compiler/
// executor against the resource systems and the Vulkan RHI.
package testbed

import (
	"encoding/binary"
	"math"

	"github.com/voidarchitect/corevk/engine"
	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	engmath "github.com/voidarchitect/corevk/engine/math"
	"github.com/voidarchitect/corevk/engine/rendergraph"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/systems"
)

type TestGame struct {
	*engine.Game

	systems *systems.SystemManager

	cubeMesh handle.Handle
	material handle.Handle

	spin float32
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:   100,
				StartPosY:   100,
				StartWidth:  1280,
				StartHeight: 720,
				Name:        "corevk testbed",
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnBuildFrame = tg.BuildFrame
	tg.FnOnResize = tg.OnResize

	return tg, nil
}

// Initialize loads the demo shader pair and mesh, instantiates the
// default material, and registers the one render-state recipe this
// testbed needs, ready for the permutation cache to build lazily.
func (g *TestGame) Initialize(sm *systems.SystemManager) error {
	g.systems = sm

	vert, err := sm.ShaderSystem.GetHandleFor("forward.vert.spv")
	if err != nil {
		return err
	}
	frag, err := sm.ShaderSystem.GetHandleFor("forward.frag.spv")
	if err != nil {
		return err
	}

	g.cubeMesh = sm.MeshSystem.GetHandleFor("test_cube.mesh")

	material, err := sm.MaterialSystem.Instantiate(systems.DefaultMaterialName)
	if err != nil {
		return err
	}
	g.material = material

	attrs, _ := resources.DeriveVertexAttributes(resources.VertexFormatPositionNormalUVTangent)
	sm.RenderStateCache.Register(resources.RenderStateConfig{
		Name:             "forward_opaque.standard",
		MaterialClass:    resources.MaterialClassStandard,
		PassType:         resources.RenderPassForwardOpaque,
		VertexFormat:     resources.VertexFormatPositionNormalUVTangent,
		ShaderHandles:    []handle.Handle{vert, frag},
		VertexAttributes: attrs,
	})

	return nil
}

func (g *TestGame) Update(dt float64) error {
	g.spin += float32(dt)
	return nil
}

// BuildFrame declares the single forward-opaque pass every frame
// (spec.md §4.9 step 2).
func (g *TestGame) BuildFrame(b *rendergraph.Builder, dt float64) error {
	b.AddPass("forward_opaque", &forwardOpaquePass{game: g})
	return nil
}

func (g *TestGame) OnResize(width, height uint32) error {
	core.LogInfo("testbed: window resized to %dx%d", width, height)
	return nil
}

// forwardOpaquePass clears the viewport color/depth targets and draws the
// demo cube with the default material (spec.md §4.8 pass renderer
// capability set).
type forwardOpaquePass struct {
	game *TestGame
}

func (p *forwardOpaquePass) Setup(b *rendergraph.Builder) {
	b.WritesToColorBuffer()
	b.WritesToDepthBuffer()
}

func (p *forwardOpaquePass) RenderPassConfig() resources.RenderPassConfig {
	return resources.RenderPassConfig{
		Name: "forward_opaque",
		Type: resources.RenderPassForwardOpaque,
		Attachments: []resources.AttachmentConfig{
			{
				Name: "color", Format: resources.FormatBGRA8Unorm,
				LoadOp: resources.LoadOpClear, StoreOp: resources.StoreOpStore,
				ClearColor: engmath.Vec4{X: 0.02, Y: 0.02, Z: 0.05, W: 1},
			},
			{
				Name: "depth", Format: resources.FormatSwapchainDepthSentinel,
				LoadOp: resources.LoadOpClear, StoreOp: resources.StoreOpDontCare,
				ClearDepth: 1,
			},
		},
	}
}

func (p *forwardOpaquePass) Execute(ctx rendergraph.PassContext) error {
	sm := p.game.systems

	stateHandle, err := sm.RenderStateCache.GetHandleFor(
		resources.MaterialClassStandard,
		resources.RenderPassForwardOpaque,
		resources.VertexFormatPositionNormalUVTangent,
		ctx.CurrentSignature,
		ctx.CurrentPass,
	)
	if err != nil {
		return err
	}

	if err := ctx.RHI.BindRenderState(stateHandle); err != nil {
		return err
	}
	if err := ctx.RHI.BindMaterial(p.game.material, stateHandle); err != nil {
		return err
	}

	ready, err := ctx.RHI.BindMesh(p.game.cubeMesh)
	if err != nil {
		return err
	}
	if !ready {
		// Mesh still uploading; skip this frame's draw rather than block.
		return nil
	}

	model := engmath.NewMat4EulerY(p.game.spin)
	if err := ctx.RHI.PushConstants(resources.ShaderStageVertex, 64, mat4Bytes(model)); err != nil {
		return err
	}

	return ctx.RHI.DrawIndexed(36, 0, 0, 1, 0)
}

func mat4Bytes(m engmath.Mat4) []byte {
	out := make([]byte, 64)
	for i, f := range m.Data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
