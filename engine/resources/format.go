package resources

// TextureFormat is a back-end-agnostic pixel format used for textures,
// render targets, and render-pass attachments. Values mirror the subset of
// Vulkan-class formats the engine cares about for signature hashing.
type TextureFormat int

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8Unorm
	FormatBGRA8Unorm
	FormatRGBA16Float
	FormatD32Float
	FormatD24UnormS8Uint
	// FormatSwapchainDepthSentinel stands in for "whatever depth format
	// the swapchain negotiated"; depth detection treats it as depth
	// unconditionally (spec.md §4.3 policy).
	FormatSwapchainDepthSentinel
)

// IsDepthFormat reports whether f is one of the recognized depth/stencil
// formats. The format sentinel set is known to be incomplete (spec.md §9
// Open Questions) -- name-based detection in AttachmentConfig.IsDepth
// covers the gap.
func (f TextureFormat) IsDepthFormat() bool {
	switch f {
	case FormatD32Float, FormatD24UnormS8Uint, FormatSwapchainDepthSentinel:
		return true
	default:
		return false
	}
}
