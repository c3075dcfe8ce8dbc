package resources

// RenderTargetUsage describes what the target image is used for.
type RenderTargetUsage int

const (
	RenderTargetUsageColor RenderTargetUsage = iota
	RenderTargetUsageDepthStencil
	RenderTargetUsageRenderTexture
	RenderTargetUsageStorage
)

// SizingPolicy determines whether a target's dimensions are fixed or
// track the application viewport.
type SizingPolicy int

const (
	SizingAbsolute SizingPolicy = iota
	SizingRelativeToViewport
)

// RenderTargetConfig is the declarative description the RHI uses to
// create a concrete RenderTarget.
type RenderTargetConfig struct {
	Name         string
	Format       TextureFormat
	Usage        RenderTargetUsage
	SizingPolicy SizingPolicy
	Width        uint32
	Height       uint32
}

// RenderTarget is a concrete, backend-owned image + view pair.
type RenderTarget struct {
	Config      RenderTargetConfig
	BackendImage interface{}
	BackendView  interface{}
}
