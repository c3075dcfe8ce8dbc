package systems

import (
	"testing"

	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/math"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

func TestMaterialSystemDefaultMaterialIsRegistered(t *testing.T) {
	ts, err := NewTextureSystem(8, t.TempDir(), &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewTextureSystem: %v", err)
	}
	ms := NewMaterialSystem(8, t.TempDir(), ts)

	h := ms.GetDefault()
	if !h.IsValid() {
		t.Fatalf("expected default material handle to be valid")
	}
	m, err := ms.GetPointerFor(h)
	if err != nil {
		t.Fatalf("GetPointerFor default: %v", err)
	}
	if m.Template.Name != DefaultMaterialName {
		t.Fatalf("expected default material's template name to be %q, got %q", DefaultMaterialName, m.Template.Name)
	}
}

func TestMaterialSystemInstantiateResolvesTextureRefs(t *testing.T) {
	ts, err := NewTextureSystem(8, t.TempDir(), &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewTextureSystem: %v", err)
	}
	ms := NewMaterialSystem(8, t.TempDir(), ts)

	ms.RegisterTemplate(&resources.MaterialTemplate{
		Name:         "rock",
		DiffuseColor: math.Vec4{X: 1, Y: 1, Z: 1, W: 1},
		TextureRefs:  []resources.TextureRef{{Name: "rock_diffuse.png", Use: resources.TextureUseDiffuse}},
	})

	h, err := ms.Instantiate("rock")
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	m, err := ms.GetPointerFor(h)
	if err != nil {
		t.Fatalf("GetPointerFor: %v", err)
	}
	if !m.DiffuseTexture.IsValid() {
		t.Fatalf("expected diffuse texture handle to be resolved and valid")
	}
}

func TestMaterialSystemInstantiateUnknownTemplateFails(t *testing.T) {
	ts, err := NewTextureSystem(8, t.TempDir(), &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewTextureSystem: %v", err)
	}
	ms := NewMaterialSystem(8, t.TempDir(), ts)

	if _, err := ms.Instantiate("does-not-exist"); err == nil {
		t.Fatalf("expected an error instantiating an unregistered template")
	}
}

func mustJobSystem(t *testing.T) *JobSystem {
	t.Helper()
	js, err := NewJobSystem(1, 4)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	t.Cleanup(func() { js.Shutdown() })
	return js
}

// fakeRHI is a minimal no-op rhi.RHI used by resource-system unit tests
// that only exercise handle bookkeeping, not real GPU work.
type fakeRHI struct{}

func (f *fakeRHI) Resize(width, height uint32) error              { return nil }
func (f *fakeRHI) WaitIdle() error                                 { return nil }
func (f *fakeRHI) BeginFrame(dt float64) (bool, error)             { return true, nil }
func (f *fakeRHI) EndFrame(dt float64) (bool, error)               { return true, nil }
func (f *fakeRHI) BeginRenderPass(pass handle.Handle, targets []handle.Handle) error { return nil }
func (f *fakeRHI) EndRenderPass() error                            { return nil }
func (f *fakeRHI) BindRenderState(state handle.Handle) error       { return nil }
func (f *fakeRHI) BindMaterial(material, state handle.Handle) error { return nil }
func (f *fakeRHI) BindMesh(mesh handle.Handle) (bool, error)       { return true, nil }
func (f *fakeRHI) PushConstants(stage resources.ShaderStage, size uint32, data []byte) error {
	return nil
}
func (f *fakeRHI) DrawIndexed(indexCount, indexOffset, vertexOffset, instanceCount, firstInstance uint32) error {
	return nil
}
func (f *fakeRHI) CreateShader(shader *resources.Shader) (interface{}, error) { return "shader", nil }
func (f *fakeRHI) DestroyShader(backend interface{})                         {}
func (f *fakeRHI) CreateTexture(texture *resources.Texture, pixels []byte) (interface{}, error) {
	return "texture", nil
}
func (f *fakeRHI) DestroyTexture(backend interface{}) {}
func (f *fakeRHI) CreateMesh(mesh *resources.Mesh) (interface{}, interface{}, error) {
	return "vbuf", "ibuf", nil
}
func (f *fakeRHI) DestroyMesh(vertexBuffer, indexBuffer interface{}) {}
func (f *fakeRHI) CreateMaterial(material *resources.Material) (interface{}, error) {
	return "material", nil
}
func (f *fakeRHI) DestroyMaterial(backend interface{}) {}
func (f *fakeRHI) CreateRenderPass(config resources.RenderPassConfig, position resources.PassPosition) (interface{}, error) {
	return "renderpass", nil
}
func (f *fakeRHI) DestroyRenderPass(backend interface{}) {}
func (f *fakeRHI) CreateRenderState(config resources.RenderStateConfig, pass handle.Handle) (interface{}, error) {
	return "renderstate", nil
}
func (f *fakeRHI) DestroyRenderState(backend interface{}) {}
func (f *fakeRHI) CreateRenderTarget(config resources.RenderTargetConfig) (interface{}, error) {
	return "rendertarget", nil
}
func (f *fakeRHI) ReleaseRenderTarget(backend interface{})             {}
func (f *fakeRHI) GetCurrentColorRenderTargetHandle() handle.Handle   { return handle.Handle{Index: 1, Generation: 1} }
func (f *fakeRHI) GetDepthRenderTargetHandle() handle.Handle          { return handle.Handle{Index: 2, Generation: 1} }
func (f *fakeRHI) RegisterMesh(h handle.Handle, vertexBuffer, indexBuffer interface{})  {}
func (f *fakeRHI) RegisterMaterial(h handle.Handle, backend interface{})                {}
func (f *fakeRHI) RegisterRenderState(h handle.Handle, backend interface{})             {}
func (f *fakeRHI) RegisterRenderPass(h handle.Handle, backend interface{})              {}
func (f *fakeRHI) RegisterShader(h handle.Handle, backend interface{})                  {}
