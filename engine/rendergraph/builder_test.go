package rendergraph

import (
	"testing"

	"github.com/voidarchitect/corevk/engine/resources"
)

func TestBuilderAccessOutsideAddPassIsIgnored(t *testing.T) {
	b := NewBuilder()
	// No current pass -- these must not panic and must not register an
	// access against any pass.
	b.WritesToColorBuffer()
	b.ReadsFromDepthBuffer()

	if len(b.accesses) != 0 {
		t.Fatalf("expected no recorded accesses, got %v", b.accesses)
	}
}

func TestBuilderAddPassRunsSetupAgainstThatPassOnly(t *testing.T) {
	b := NewBuilder()
	var sawA, sawB []string

	a := &stubPassRenderer{setup: func(b *Builder) {
		b.WritesTo("a.out")
		sawA = b.passes[len(b.passes)-1].writes
	}}
	bRenderer := &stubPassRenderer{setup: func(b *Builder) {
		b.ReadsFrom("a.out")
		sawB = b.passes[len(b.passes)-1].reads
	}}
	b.AddPass("a", a)
	b.AddPass("b", bRenderer)

	if len(sawA) != 1 || sawA[0] != "a.out" {
		t.Fatalf("expected pass a's own writes to be recorded, got %v", sawA)
	}
	if len(sawB) != 1 || sawB[0] != "a.out" {
		t.Fatalf("expected pass b's own reads to be recorded, got %v", sawB)
	}
}

func TestBuilderImportRenderTargetIsResolvable(t *testing.T) {
	b := NewBuilder()
	want := testHandle(7)
	b.ImportRenderTarget(ViewportColor, want)

	got, ok := b.ImportedTarget(ViewportColor)
	if !ok || got != want {
		t.Fatalf("expected ImportedTarget to resolve the imported handle, got %v, %v", got, ok)
	}

	if _, ok := b.ImportedTarget("never.imported"); ok {
		t.Fatalf("expected an unimported name to resolve to (zero, false)")
	}
}

func TestBuilderSugarMethodsTargetWellKnownNames(t *testing.T) {
	b := NewBuilder()
	renderer := &stubPassRenderer{setup: func(b *Builder) {
		b.ReadsFromColorBuffer().WritesToColorBuffer().ReadsFromDepthBuffer().WritesToDepthBuffer()
	}, config: resources.RenderPassConfig{Name: "post"}}
	b.AddPass("post", renderer)

	node := b.passes[0]
	assertContains(t, node.reads, ViewportColor)
	assertContains(t, node.writes, ViewportColor)
	assertContains(t, node.reads, ViewportDepth)
	assertContains(t, node.writes, ViewportDepth)
}

func assertContains(t *testing.T, haystack []string, needle string) {
	t.Helper()
	for _, s := range haystack {
		if s == needle {
			return
		}
	}
	t.Fatalf("expected %q in %v", needle, haystack)
}
