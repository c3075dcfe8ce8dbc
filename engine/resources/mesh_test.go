package resources

import "testing"

func newTestMeshData() *MeshData {
	return NewMeshData(
		make([]Vertex, 8),
		[]uint32{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7},
	)
}

func TestSubMeshWellFormed(t *testing.T) {
	data := newTestMeshData()

	ok := SubMesh{
		Name:         "front",
		IndexOffset:  0,
		IndexCount:   6,
		VertexOffset: 0,
		VertexCount:  4,
	}
	if !ok.IsWellFormed(data) {
		t.Fatalf("expected first submesh to be well formed")
	}

	back := SubMesh{
		Name:         "back",
		IndexOffset:  6,
		IndexCount:   6,
		VertexOffset: 4,
		VertexCount:  4,
	}
	if !back.IsWellFormed(data) {
		t.Fatalf("expected second submesh to be well formed")
	}
}

func TestSubMeshOutOfRangeIndexIsNotWellFormed(t *testing.T) {
	data := newTestMeshData()

	bad := SubMesh{
		Name:         "broken",
		IndexOffset:  0,
		IndexCount:   6,
		VertexOffset: 4, // indices 0,1,2 fall outside [4,8)
		VertexCount:  4,
	}
	if bad.IsWellFormed(data) {
		t.Fatalf("expected submesh referencing out-of-range vertices to be rejected")
	}
}

func TestSubMeshRangeExceedsMeshDataIsNotWellFormed(t *testing.T) {
	data := newTestMeshData()

	bad := SubMesh{
		Name:         "overflow",
		IndexOffset:  0,
		IndexCount:   100,
		VertexOffset: 0,
		VertexCount:  4,
	}
	if bad.IsWellFormed(data) {
		t.Fatalf("expected submesh index range exceeding mesh data to be rejected")
	}
}

func TestMeshNeedsReuploadAfterMutation(t *testing.T) {
	data := newTestMeshData()
	m := &Mesh{Name: "box", Data: data}
	m.LastUploadedGeneration = data.Generation

	if m.NeedsReupload() {
		t.Fatalf("freshly uploaded mesh should not need reupload")
	}

	data.Mutate(make([]Vertex, 4), []uint32{0, 1, 2})
	if !m.NeedsReupload() {
		t.Fatalf("mesh should need reupload after its data generation changed")
	}
}
