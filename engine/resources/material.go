package resources

import (
	"github.com/google/uuid"

	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/math"
)

// MaterialClass distinguishes the two render-state families the spec
// names; pass-type/vertex-format combinations key off this.
type MaterialClass int

const (
	MaterialClassStandard MaterialClass = iota
	MaterialClassUI
)

// ResourceBindingType is the kind of binding point a render state expects.
type ResourceBindingType int

const (
	BindingConstantBuffer ResourceBindingType = iota
	BindingTexture1D
	BindingTexture2D
	BindingTexture3D
	BindingTextureCube
	BindingSampler
	BindingStorageBuffer
	BindingStorageTexture
)

// ResourceBinding describes one shader binding slot.
type ResourceBinding struct {
	Type         ResourceBindingType
	BindingIndex uint32
	ShaderStage  ShaderStage
}

// MaterialTemplate is a named, reusable material recipe registered with
// the material system (spec.md §4.2 register_template).
type MaterialTemplate struct {
	Name             string
	Class            MaterialClass
	DiffuseColor     math.Vec4
	ResourceBindings []ResourceBinding
	TextureRefs      []TextureRef
}

// Material is an instantiation of a MaterialTemplate, with texture
// references resolved to concrete handles.
type Material struct {
	UUID            uuid.UUID
	Template        *MaterialTemplate
	DiffuseTexture  handle.Handle
	SpecularTexture handle.Handle
	NormalTexture   handle.Handle

	BackendBindingGroup interface{}
}
