package resources

import (
	"sync"

	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/math"
)

// Vertex is the canonical vertex layout every mesh importer must emit
// (spec.md §6 Mesh asset).
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV0      math.Vec2
	// Tangent.W carries handedness, +1 or -1.
	Tangent math.Vec4
}

// MeshData is the shared, mutable vertex/index buffer behind one or more
// Mesh entries. It is shared by pointer so a worker thread can populate it
// before the owning Mesh entry is alive (spec.md §3 Ownership summary).
type MeshData struct {
	mu sync.RWMutex

	Vertices []Vertex
	Indices  []uint32
	// Generation increments on any mutation; renderers compare this
	// against Mesh.LastUploadedGeneration to detect stale GPU buffers.
	Generation uint64
}

// NewMeshData builds a MeshData from vertex/index slices, generation 1
// (matching the "any mutation increments generation" invariant -- initial
// construction counts as the first mutation).
func NewMeshData(vertices []Vertex, indices []uint32) *MeshData {
	return &MeshData{Vertices: vertices, Indices: indices, Generation: 1}
}

// Mutate replaces the vertex/index data and bumps Generation. Safe for
// concurrent use; intended to be called from a disk-stage loader job.
func (m *MeshData) Mutate(vertices []Vertex, indices []uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Vertices = vertices
	m.Indices = indices
	m.Generation++
}

// Snapshot returns the current generation and slice lengths without
// copying the underlying data, for freshness checks.
func (m *MeshData) Snapshot() (generation uint64, vertexCount, indexCount int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Generation, len(m.Vertices), len(m.Indices)
}

// SubMesh is a contiguous range within a Mesh's shared MeshData, bound to
// a single material.
type SubMesh struct {
	Name          string
	MaterialHandle handle.Handle
	IndexOffset   uint32
	IndexCount    uint32
	VertexOffset  uint32
	VertexCount   uint32
}

// IsWellFormed checks the invariant from spec.md §8: the submesh's vertex
// and index ranges lie within the owning mesh data, and every index value
// referenced by the submesh's index range lies within its own vertex
// range.
func (s SubMesh) IsWellFormed(data *MeshData) bool {
	data.mu.RLock()
	defer data.mu.RUnlock()

	vertexEnd := uint64(s.VertexOffset) + uint64(s.VertexCount)
	if vertexEnd > uint64(len(data.Vertices)) {
		return false
	}
	indexEnd := uint64(s.IndexOffset) + uint64(s.IndexCount)
	if indexEnd > uint64(len(data.Indices)) {
		return false
	}
	for i := s.IndexOffset; i < s.IndexOffset+s.IndexCount; i++ {
		idx := data.Indices[i]
		if idx < s.VertexOffset || idx >= s.VertexOffset+s.VertexCount {
			return false
		}
	}
	return true
}

// Mesh owns a shared MeshData plus the GPU buffers derived from it.
type Mesh struct {
	Name     string
	Data     *MeshData
	SubMeshes []SubMesh

	BackendVertexBuffer interface{}
	BackendIndexBuffer  interface{}
	// LastUploadedGeneration is compared against Data.Generation to
	// decide whether BindMesh must trigger a re-upload.
	LastUploadedGeneration uint64
	LoadState              LoadState
}

// NeedsReupload reports whether the mesh's GPU buffers are stale relative
// to its shared MeshData (spec.md §8 Mesh GPU freshness).
func (m *Mesh) NeedsReupload() bool {
	gen, _, _ := m.Data.Snapshot()
	return gen != m.LastUploadedGeneration
}
