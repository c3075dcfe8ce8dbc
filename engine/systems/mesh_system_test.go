package systems

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMeshSystemGetPointerForDoesNotPanicDuringLoad(t *testing.T) {
	ms, err := NewMeshSystem(8, t.TempDir(), &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewMeshSystem: %v", err)
	}

	h := ms.GetHandleFor("slow.mesh")
	// The disk stage will fail quickly (file absent) and flip to Failed, or
	// may still be Loading; both are valid transient states, and neither
	// produces a panic from GetPointerFor.
	_ = ms.GetPointerFor(h)
}

func TestMeshSystemGetPointerForReturnsErrorMeshForStaleHandle(t *testing.T) {
	ms, err := NewMeshSystem(8, t.TempDir(), &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewMeshSystem: %v", err)
	}

	stale := ms.GetHandleFor("temp.mesh")
	ms.Release("temp.mesh")

	mesh := ms.GetPointerFor(stale)
	if mesh == nil || mesh.Name != "__error" {
		t.Fatalf("expected error mesh fallback for a released/stale handle, got %+v", mesh)
	}
}

func TestMeshSystemDecodeFromDiskParsesVerticesIndicesAndSubmeshes(t *testing.T) {
	root := t.TempDir()
	contents := `# a tiny quad
v 0 0 0 0 0 1 0 0
v 1 0 0 0 0 1 1 0
v 1 1 0 0 0 1 1 1
v 0 1 0 0 0 1 0 1
i 0 1 2
i 2 3 0
submesh quad 0 6 0 4
`
	if err := os.WriteFile(filepath.Join(root, "quad.mesh"), []byte(contents), 0o644); err != nil {
		t.Fatalf("write test mesh: %v", err)
	}

	ms, err := NewMeshSystem(8, root, &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewMeshSystem: %v", err)
	}

	payload, err := ms.decodeFromDisk("quad.mesh")
	if err != nil {
		t.Fatalf("decodeFromDisk: %v", err)
	}
	decoded := payload.(decodedMesh)
	if len(decoded.vertices) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(decoded.vertices))
	}
	if len(decoded.indices) != 6 {
		t.Fatalf("expected 6 indices, got %d", len(decoded.indices))
	}
	if len(decoded.submeshes) != 1 || decoded.submeshes[0].Name != "quad" {
		t.Fatalf("expected one submesh named 'quad', got %+v", decoded.submeshes)
	}
}

func TestMeshSystemDecodeFromDiskRejectsEmptyFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "empty.mesh"), []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatalf("write test mesh: %v", err)
	}

	ms, err := NewMeshSystem(8, root, &fakeRHI{}, NewLoadPipeline(mustJobSystem(t)))
	if err != nil {
		t.Fatalf("NewMeshSystem: %v", err)
	}

	if _, err := ms.decodeFromDisk("empty.mesh"); err == nil {
		t.Fatalf("expected an error decoding a mesh file with no vertex/index data")
	}
}
