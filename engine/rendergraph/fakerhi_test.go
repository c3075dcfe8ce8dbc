package rendergraph

import (
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
)

// fakeRHI is a minimal no-op rhi.RHI used by rendergraph unit tests that
// exercise compilation and execution bookkeeping, not real GPU work.
type fakeRHI struct {
	renderPassCalls int
	beginPassNames  []string
	createPassErr   error
}

func (f *fakeRHI) Resize(width, height uint32) error  { return nil }
func (f *fakeRHI) WaitIdle() error                    { return nil }
func (f *fakeRHI) BeginFrame(dt float64) (bool, error) { return true, nil }
func (f *fakeRHI) EndFrame(dt float64) (bool, error)   { return true, nil }
func (f *fakeRHI) BeginRenderPass(pass handle.Handle, targets []handle.Handle) error {
	f.renderPassCalls++
	return nil
}
func (f *fakeRHI) EndRenderPass() error                             { return nil }
func (f *fakeRHI) BindRenderState(state handle.Handle) error        { return nil }
func (f *fakeRHI) BindMaterial(material, state handle.Handle) error { return nil }
func (f *fakeRHI) BindMesh(mesh handle.Handle) (bool, error)        { return true, nil }
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
	if f.createPassErr != nil {
		return nil, f.createPassErr
	}
	return "renderpass:" + config.Name, nil
}
func (f *fakeRHI) DestroyRenderPass(backend interface{}) {}
func (f *fakeRHI) CreateRenderState(config resources.RenderStateConfig, pass handle.Handle) (interface{}, error) {
	return "renderstate:" + config.Name, nil
}
func (f *fakeRHI) DestroyRenderState(backend interface{}) {}
func (f *fakeRHI) CreateRenderTarget(config resources.RenderTargetConfig) (interface{}, error) {
	return "rendertarget", nil
}
func (f *fakeRHI) ReleaseRenderTarget(backend interface{})           {}
func (f *fakeRHI) GetCurrentColorRenderTargetHandle() handle.Handle { return handle.Handle{Index: 1, Generation: 1} }
func (f *fakeRHI) GetDepthRenderTargetHandle() handle.Handle        { return handle.Handle{Index: 2, Generation: 1} }
func (f *fakeRHI) RegisterMesh(h handle.Handle, vertexBuffer, indexBuffer interface{}) {}
func (f *fakeRHI) RegisterMaterial(h handle.Handle, backend interface{})              {}
func (f *fakeRHI) RegisterRenderState(h handle.Handle, backend interface{})           {}
func (f *fakeRHI) RegisterRenderPass(h handle.Handle, backend interface{})            {}
func (f *fakeRHI) RegisterShader(h handle.Handle, backend interface{})                {}

// stubPassRenderer is a PassRenderer test double driven entirely by
// closures/fields, letting each test declare arbitrary reads/writes.
type stubPassRenderer struct {
	setup      func(b *Builder)
	config     resources.RenderPassConfig
	executed   int
	executeErr error
}

func (s *stubPassRenderer) Setup(b *Builder) {
	if s.setup != nil {
		s.setup(b)
	}
}

func (s *stubPassRenderer) Execute(ctx PassContext) error {
	s.executed++
	return s.executeErr
}

func (s *stubPassRenderer) RenderPassConfig() resources.RenderPassConfig {
	return s.config
}
