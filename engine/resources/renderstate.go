package resources

import (
	"github.com/google/uuid"

	"github.com/voidarchitect/corevk/engine/handle"
)

// VertexFormat names a canonical vertex attribute layout.
type VertexFormat int

const (
	VertexFormatPosition VertexFormat = iota
	VertexFormatPositionColor
	VertexFormatPositionUV
	VertexFormatPositionNormal
	VertexFormatPositionNormalUV
	VertexFormatPositionNormalUVTangent
	VertexFormatCustom
)

// VertexAttributeType is the scalar/vector shape of one vertex attribute.
type VertexAttributeType int

const (
	AttrFloat32x2 VertexAttributeType = iota
	AttrFloat32x3
	AttrFloat32x4
)

// VertexAttribute is one entry of a pipeline's vertex input layout.
type VertexAttribute struct {
	Type   VertexAttributeType
	Offset uint32
}

// DeriveVertexAttributes returns the canonical attribute list for a
// well-known vertex format, per the table in spec.md §4.4. VertexFormatCustom
// returns (nil, false): the caller must supply attributes explicitly.
func DeriveVertexAttributes(format VertexFormat) ([]VertexAttribute, bool) {
	vec3 := AttrFloat32x3
	vec2 := AttrFloat32x2
	vec4 := AttrFloat32x4

	layout := func(types ...VertexAttributeType) []VertexAttribute {
		attrs := make([]VertexAttribute, len(types))
		var offset uint32
		for i, t := range types {
			attrs[i] = VertexAttribute{Type: t, Offset: offset}
			offset += attributeSize(t)
		}
		return attrs
	}

	switch format {
	case VertexFormatPosition:
		return layout(vec3), true
	case VertexFormatPositionColor:
		return layout(vec3, vec4), true
	case VertexFormatPositionUV:
		return layout(vec3, vec2), true
	case VertexFormatPositionNormal:
		return layout(vec3, vec3), true
	case VertexFormatPositionNormalUV:
		return layout(vec3, vec3, vec2), true
	case VertexFormatPositionNormalUVTangent:
		return layout(vec3, vec3, vec2, vec4), true
	case VertexFormatCustom:
		return nil, false
	default:
		return nil, false
	}
}

func attributeSize(t VertexAttributeType) uint32 {
	switch t {
	case AttrFloat32x2:
		return 2 * 4
	case AttrFloat32x3:
		return 3 * 4
	case AttrFloat32x4:
		return 4 * 4
	default:
		return 0
	}
}

// RenderStateConfig is the registered recipe a render-state permutation
// cache miss looks up by (material class, pass type, vertex format).
type RenderStateConfig struct {
	Name string

	MaterialClass MaterialClass
	PassType      RenderPassType
	VertexFormat  VertexFormat

	ExpectedBindings []ResourceBinding
	ShaderHandles    []handle.Handle
	VertexAttributes []VertexAttribute
}

// RenderState is a compiled, cached pipeline-state object.
type RenderState struct {
	UUID            uuid.UUID
	Name            string
	BackendPipeline interface{}
}
