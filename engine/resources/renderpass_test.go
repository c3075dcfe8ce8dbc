package resources

import "testing"

func TestAttachmentDepthDetectionByName(t *testing.T) {
	a := AttachmentConfig{Name: "depth", Format: FormatRGBA8Unorm}
	if !a.IsDepth() {
		t.Fatalf("attachment literally named 'depth' must classify as depth regardless of format")
	}
}

func TestAttachmentDepthDetectionByFormat(t *testing.T) {
	a := AttachmentConfig{Name: "shadow_map", Format: FormatD32Float}
	if !a.IsDepth() {
		t.Fatalf("attachment with a depth format must classify as depth regardless of name")
	}
}

func TestAttachmentColorIsNotDepth(t *testing.T) {
	a := AttachmentConfig{Name: "albedo", Format: FormatRGBA8Unorm}
	if a.IsDepth() {
		t.Fatalf("plain color attachment must not classify as depth")
	}
}

func TestDeriveSignatureSeparatesColorAndDepth(t *testing.T) {
	cfg := RenderPassConfig{
		Name: "forward",
		Attachments: []AttachmentConfig{
			{Name: "color", Format: FormatRGBA8Unorm},
			{Name: "depth", Format: FormatD32Float},
		},
	}
	sig := cfg.DeriveSignature()
	if len(sig.ColorFormats) != 1 || sig.ColorFormats[0] != FormatRGBA8Unorm {
		t.Fatalf("expected one color format, got %+v", sig.ColorFormats)
	}
	if sig.DepthFormat == nil || *sig.DepthFormat != FormatD32Float {
		t.Fatalf("expected depth format to be set, got %+v", sig.DepthFormat)
	}
}

func TestSignatureEqualityIgnoresAttachmentNamesAndOps(t *testing.T) {
	a := RenderPassConfig{
		Attachments: []AttachmentConfig{
			{Name: "color", Format: FormatRGBA8Unorm, LoadOp: LoadOpClear},
			{Name: "depth", Format: FormatD32Float},
		},
	}
	b := RenderPassConfig{
		Attachments: []AttachmentConfig{
			{Name: "color_buffer", Format: FormatRGBA8Unorm, LoadOp: LoadOpLoad},
			{Name: "depth_buffer", Format: FormatD32Float},
		},
	}
	if !a.DeriveSignature().Equal(b.DeriveSignature()) {
		t.Fatalf("signatures built from equal formats should compare equal regardless of name/load-op")
	}
}

func TestDeriveVertexAttributesKnownFormats(t *testing.T) {
	attrs, ok := DeriveVertexAttributes(VertexFormatPositionNormalUVTangent)
	if !ok {
		t.Fatalf("expected PositionNormalUVTangent to be derivable")
	}
	wantTypes := []VertexAttributeType{AttrFloat32x3, AttrFloat32x3, AttrFloat32x2, AttrFloat32x4}
	if len(attrs) != len(wantTypes) {
		t.Fatalf("expected %d attributes, got %d", len(wantTypes), len(attrs))
	}
	for i, want := range wantTypes {
		if attrs[i].Type != want {
			t.Fatalf("attribute %d: expected type %v, got %v", i, want, attrs[i].Type)
		}
	}
}

func TestDeriveVertexAttributesCustomRequiresExplicitLayout(t *testing.T) {
	if _, ok := DeriveVertexAttributes(VertexFormatCustom); ok {
		t.Fatalf("custom vertex format must not be auto-derivable")
	}
}
