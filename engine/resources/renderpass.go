package resources

import "github.com/voidarchitect/corevk/engine/math"

// RenderPassType distinguishes the families of passes a RenderStateConfig
// can target.
type RenderPassType int

const (
	RenderPassForwardOpaque RenderPassType = iota
	RenderPassForwardTransparent
	RenderPassShadow
	RenderPassDepthPrepass
	RenderPassPostProcess
	RenderPassUI
)

// LoadOp / StoreOp mirror Vulkan-class attachment load/store semantics.
type LoadOp int

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

// AttachmentConfig describes one attachment slot of a render pass.
type AttachmentConfig struct {
	Name         string
	Format       TextureFormat
	LoadOp       LoadOp
	StoreOp      StoreOp
	ClearColor   math.Vec4
	ClearDepth   float32
	ClearStencil uint32
}

// IsDepth classifies the attachment as depth-carrying per spec.md §4.3's
// policy: named literally "depth", OR a recognized depth format, OR the
// swapchain-depth sentinel. Name wins even over a colorlike format,
// matching the Open Question decision in spec.md §9.
func (a AttachmentConfig) IsDepth() bool {
	if a.Name == "depth" {
		return true
	}
	return a.Format.IsDepthFormat()
}

// RenderPassConfig is the declarative description of one render pass the
// compiler resolves into a concrete backend object.
type RenderPassConfig struct {
	Name        string
	Type        RenderPassType
	Attachments []AttachmentConfig
}

// DeriveSignature computes the structural cache key for render-state
// caching: the ordered list of color formats and the optional depth
// format (spec.md §3 RenderPassSignature, §4.3).
func (c RenderPassConfig) DeriveSignature() RenderPassSignature {
	sig := RenderPassSignature{}
	for _, a := range c.Attachments {
		if a.IsDepth() {
			f := a.Format
			sig.DepthFormat = &f
		} else {
			sig.ColorFormats = append(sig.ColorFormats, a.Format)
		}
	}
	return sig
}

// RenderPassSignature is the minimal structural key used to key render
// states: attachment formats only, not load/store semantics or names.
type RenderPassSignature struct {
	ColorFormats []TextureFormat
	DepthFormat  *TextureFormat
}

// Equal reports structural equality, used by the render-state permutation
// cache's key comparison.
func (s RenderPassSignature) Equal(o RenderPassSignature) bool {
	if len(s.ColorFormats) != len(o.ColorFormats) {
		return false
	}
	for i := range s.ColorFormats {
		if s.ColorFormats[i] != o.ColorFormats[i] {
			return false
		}
	}
	if (s.DepthFormat == nil) != (o.DepthFormat == nil) {
		return false
	}
	if s.DepthFormat != nil && *s.DepthFormat != *o.DepthFormat {
		return false
	}
	return true
}

// PassPosition controls the attachment layout transitions a render pass
// performs, relative to the swapchain's color attachment.
type PassPosition int

const (
	PassPositionFirst PassPosition = iota
	PassPositionMiddle
	PassPositionLast
	PassPositionStandalone
)

func (p PassPosition) String() string {
	switch p {
	case PassPositionFirst:
		return "First"
	case PassPositionMiddle:
		return "Middle"
	case PassPositionLast:
		return "Last"
	case PassPositionStandalone:
		return "Standalone"
	default:
		return "Unknown"
	}
}

// RenderPass is a compiled, cached render-pass object.
type RenderPass struct {
	Config      RenderPassConfig
	Signature   RenderPassSignature
	Position    PassPosition
	BackendPass interface{}
}
