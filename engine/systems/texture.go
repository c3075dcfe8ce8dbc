package systems

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// decodedTexture is the disk-stage payload: raw RGBA8 pixels plus
// dimensions, handed to the upload stage for GPU creation.
type decodedTexture struct {
	width, height   uint32
	hasTransparency bool
	pixels          []byte
}

// TextureSystem owns every GPU texture behind a generational handle, with
// name-keyed reference counting (grounded on the teacher's
// ProcessTextureReference idiom) and async disk-to-GPU loading through a
// shared LoadPipeline.
type TextureSystem struct {
	mu       sync.Mutex
	slots    *handle.SlotTable[resources.Texture]
	byName   map[string]handle.Handle
	refcount map[string]int

	assetRoot string
	backend   rhi.RHI
	pipeline  *LoadPipeline

	// placeholders holds one loading-state fallback texture per TextureUse
	// (spec.md §4.5: "checker default for diffuse, neutral blue for normal,
	// mid-grey for specular"), keyed by resources.TextureUse.
	placeholders map[resources.TextureUse]handle.Handle
	errorTex     handle.Handle
}

// NewTextureSystem builds a texture system with room for capacity textures.
func NewTextureSystem(capacity int, assetRoot string, backend rhi.RHI, pipeline *LoadPipeline) (*TextureSystem, error) {
	ts := &TextureSystem{
		slots:        handle.NewSlotTable[resources.Texture](capacity),
		byName:       make(map[string]handle.Handle),
		refcount:     make(map[string]int),
		placeholders: make(map[resources.TextureUse]handle.Handle),
		assetRoot:    assetRoot,
		backend:      backend,
		pipeline:     pipeline,
	}
	if err := ts.createBuiltins(); err != nil {
		return nil, err
	}
	return ts, nil
}

// createBuiltins synthesizes the per-use placeholder and error textures in
// code, the same way the teacher's TextureSystemCreateDefaultTextures
// avoids an asset dependency for its checkerboard default.
func (ts *TextureSystem) createBuiltins() error {
	builtins := []struct {
		use    resources.TextureUse
		name   string
		pixels []byte
	}{
		{resources.TextureUseDiffuse, "__placeholder_diffuse", checkerboardRGBA(64, 64, 0, 200, 255)},   // cyan checker
		{resources.TextureUseNormal, "__placeholder_normal", solidRGBA(64, 64, 128, 128, 255)},          // flat tangent-space normal
		{resources.TextureUseSpecular, "__placeholder_specular", solidRGBA(64, 64, 128, 128, 128)},      // mid-grey
	}
	for _, b := range builtins {
		tex := &resources.Texture{
			Name: b.name, Use: b.use, Width: 64, Height: 64, Channels: 4,
			LoadState: resources.LoadStateLoaded,
		}
		backendTex, err := ts.backend.CreateTexture(tex, b.pixels)
		if err != nil {
			return fmt.Errorf("create %s placeholder texture: %w", b.name, err)
		}
		tex.BackendImage = backendTex
		ts.placeholders[b.use] = ts.slots.Allocate(*tex)
	}

	errTex := &resources.Texture{
		Name: "__error", Width: 64, Height: 64, Channels: 4,
		LoadState: resources.LoadStateLoaded,
	}
	errorPixels := checkerboardRGBA(64, 64, 255, 0, 220) // magenta checker: "failed"
	backendErr, err := ts.backend.CreateTexture(errTex, errorPixels)
	if err != nil {
		return fmt.Errorf("create error texture: %w", err)
	}
	errTex.BackendImage = backendErr
	ts.errorTex = ts.slots.Allocate(*errTex)
	return nil
}

func checkerboardRGBA(w, h int, r, g, b uint8) []byte {
	pixels := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if (x/8+y/8)%2 == 0 {
				pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = r, g, b, 255
			} else {
				pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = 0, 0, 0, 255
			}
		}
	}
	return pixels
}

func solidRGBA(w, h int, r, g, b uint8) []byte {
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3] = r, g, b, 255
	}
	return pixels
}

// GetHandleFor returns the handle for name, loading it asynchronously if
// this is the first acquisition, and incrementing its reference count
// either way (spec.md §4.1 name-keyed acquire/release). use selects which
// builtin fallback texture ResolveForBinding substitutes while name is
// still Loading.
func (ts *TextureSystem) GetHandleFor(name string, use resources.TextureUse) handle.Handle {
	ts.mu.Lock()
	if h, ok := ts.byName[name]; ok {
		ts.refcount[name]++
		ts.mu.Unlock()
		return h
	}

	tex := resources.Texture{Name: name, Use: use, LoadState: resources.LoadStateLoading}
	h := ts.slots.Allocate(tex)
	if !h.IsValid() {
		ts.mu.Unlock()
		core.LogError("texture system: capacity exhausted, cannot load %q", name)
		return handle.Invalid
	}
	ts.byName[name] = h
	ts.refcount[name] = 1
	ts.mu.Unlock()

	ts.pipeline.Submit(name, JobPriorityNormal,
		func(n string) (interface{}, error) { return ts.decodeFromDisk(n) },
		func(n string, payload interface{}) error { return ts.uploadToGPU(n, h, payload) },
		func(err error) {
			if err != nil {
				core.LogError("texture %q failed to load: %s", name, err.Error())
				if slot := ts.slots.Get(h); slot != nil {
					slot.LoadState = resources.LoadStateFailed
				}
			}
		},
	)
	return h
}

func (ts *TextureSystem) decodeFromDisk(name string) (interface{}, error) {
	f, err := os.Open(filepath.Join(ts.assetRoot, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, err.Error())
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceCorrupt, err.Error())
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, w*h*4)
	hasAlpha := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * 4
			pixels[i] = byte(r >> 8)
			pixels[i+1] = byte(g >> 8)
			pixels[i+2] = byte(b >> 8)
			pixels[i+3] = byte(a >> 8)
			if pixels[i+3] < 255 {
				hasAlpha = true
			}
		}
	}

	return decodedTexture{width: uint32(w), height: uint32(h), hasTransparency: hasAlpha, pixels: pixels}, nil
}

func (ts *TextureSystem) uploadToGPU(name string, h handle.Handle, payload interface{}) error {
	decoded := payload.(decodedTexture)

	slot := ts.slots.Get(h)
	if slot == nil {
		return fmt.Errorf("%w: texture slot for %q released before upload completed", core.ErrHandleInvalid, name)
	}

	slot.Width = decoded.width
	slot.Height = decoded.height
	slot.Channels = 4
	slot.HasTransparency = decoded.hasTransparency

	backendImage, err := ts.backend.CreateTexture(slot, decoded.pixels)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrBackendTransient, err.Error())
	}
	slot.BackendImage = backendImage
	slot.LoadState = resources.LoadStateLoaded
	slot.Generation++
	return nil
}

// DefaultHandleFor returns the builtin placeholder handle for use, the
// handle a MaterialTemplate substitutes when its TextureRefs leaves that
// use empty or missing (spec.md §4.2).
func (ts *TextureSystem) DefaultHandleFor(use resources.TextureUse) handle.Handle {
	if h, ok := ts.placeholders[use]; ok {
		return h
	}
	return ts.placeholders[resources.TextureUseDiffuse]
}

// GetPointerFor resolves h to its live Texture, or an error if h is stale.
func (ts *TextureSystem) GetPointerFor(h handle.Handle) (*resources.Texture, error) {
	tex := ts.slots.Get(h)
	if tex == nil {
		return nil, core.ErrHandleInvalid
	}
	return tex, nil
}

// ResolveForBinding returns the texture to actually bind for h: the real
// texture when Loaded, the use-appropriate placeholder while Loading, and
// the error texture on Failed or a stale handle (spec.md §4.5 fallback
// policy: checker default for diffuse, neutral blue for normal, mid-grey
// for specular).
func (ts *TextureSystem) ResolveForBinding(h handle.Handle) *resources.Texture {
	tex := ts.slots.Get(h)
	if tex == nil {
		return ts.slots.Get(ts.errorTex)
	}
	switch tex.LoadState {
	case resources.LoadStateLoaded:
		return tex
	case resources.LoadStateLoading:
		if ph, ok := ts.placeholders[tex.Use]; ok {
			return ts.slots.Get(ph)
		}
		return ts.slots.Get(ts.placeholders[resources.TextureUseDiffuse])
	default:
		return ts.slots.Get(ts.errorTex)
	}
}

// Release decrements name's reference count, destroying the backend
// texture and freeing its slot once the count reaches zero.
func (ts *TextureSystem) Release(name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	h, ok := ts.byName[name]
	if !ok {
		return
	}
	ts.refcount[name]--
	if ts.refcount[name] > 0 {
		return
	}

	if tex := ts.slots.Get(h); tex != nil && tex.BackendImage != nil {
		ts.backend.DestroyTexture(tex.BackendImage)
	}
	ts.slots.Release(h)
	delete(ts.byName, name)
	delete(ts.refcount, name)
}

// Shutdown releases the builtin placeholder/error textures.
func (ts *TextureSystem) Shutdown() {
	for _, ph := range ts.placeholders {
		if tex := ts.slots.Get(ph); tex != nil {
			ts.backend.DestroyTexture(tex.BackendImage)
		}
	}
	if tex := ts.slots.Get(ts.errorTex); tex != nil {
		ts.backend.DestroyTexture(tex.BackendImage)
	}
}
