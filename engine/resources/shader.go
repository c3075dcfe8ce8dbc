package resources

// ShaderStage identifies which programmable stage a shader module targets.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
	ShaderStageCompute
	ShaderStageGeometry
	ShaderStageTessCtl
	ShaderStageTessEval
	ShaderStageAll
)

// InferShaderStageFromFilename infers a stage from a bytecode filename's
// suffix when no sidecar descriptor is present (spec.md §6 Shader input).
func InferShaderStageFromFilename(filename string) (ShaderStage, bool) {
	switch {
	case hasAnySuffix(filename, ".vert", ".vert.spv"):
		return ShaderStageVertex, true
	case hasAnySuffix(filename, ".frag", ".frag.spv", ".pixl", ".pixl.spv"):
		return ShaderStagePixel, true
	case hasAnySuffix(filename, ".comp", ".comp.spv"):
		return ShaderStageCompute, true
	case hasAnySuffix(filename, ".geom", ".geom.spv"):
		return ShaderStageGeometry, true
	case hasAnySuffix(filename, ".tesc", ".tesc.spv"):
		return ShaderStageTessCtl, true
	case hasAnySuffix(filename, ".tese", ".tese.spv"):
		return ShaderStageTessEval, true
	default:
		return ShaderStageVertex, false
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// Shader is a loaded, pre-compiled shader module plus its descriptor.
type Shader struct {
	Name       string
	Stage      ShaderStage
	EntryPoint string
	Bytecode   []byte

	// BackendModule is the opaque RHI-side shader module object, set once
	// the RHI has created it.
	BackendModule interface{}
}
