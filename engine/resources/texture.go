package resources

// TextureUse describes the role a texture plays within a material.
type TextureUse int

const (
	TextureUseDiffuse TextureUse = iota
	TextureUseSpecular
	TextureUseNormal
)

// Texture is a GPU-backed image resource, possibly still loading.
type Texture struct {
	Name             string
	Width            uint32
	Height           uint32
	Channels         uint8
	HasTransparency  bool
	Use              TextureUse
	BackendImage     interface{}
	LoadState        LoadState
	// Generation increments whenever the backend image is replaced
	// (e.g. the async loader's upload job swaps in the real data).
	Generation uint64
}

// TextureRef names a texture a MaterialTemplate wants bound to a given
// use (spec.md §3 MaterialTemplate.texture_refs).
type TextureRef struct {
	Name string
	Use  TextureUse
}
