package systems

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/math"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// decodedMesh is the disk-stage payload for a mesh load: parsed vertex/
// index data plus its submesh table.
type decodedMesh struct {
	vertices  []resources.Vertex
	indices   []uint32
	submeshes []resources.SubMesh
}

// MeshSystem owns every GPU mesh behind a generational handle, mirroring
// TextureSystem's acquire/release and async-load shape (spec.md §4.1, §4.5).
type MeshSystem struct {
	mu       sync.Mutex
	slots    *handle.SlotTable[resources.Mesh]
	byName   map[string]handle.Handle
	refcount map[string]int

	assetRoot string
	backend   rhi.RHI
	pipeline  *LoadPipeline

	errorMesh handle.Handle
}

// NewMeshSystem builds a mesh system with room for capacity meshes, and
// creates the error-fallback unit cube immediately.
func NewMeshSystem(capacity int, assetRoot string, backend rhi.RHI, pipeline *LoadPipeline) (*MeshSystem, error) {
	ms := &MeshSystem{
		slots:     handle.NewSlotTable[resources.Mesh](capacity),
		byName:    make(map[string]handle.Handle),
		refcount:  make(map[string]int),
		assetRoot: assetRoot,
		backend:   backend,
		pipeline:  pipeline,
	}
	if err := ms.createErrorMesh(); err != nil {
		return nil, err
	}
	return ms, nil
}

// createErrorMesh builds a unit cube in code, the fallback substituted for
// a mesh whose load has Failed (spec.md §4.5 mesh fallback policy).
func (ms *MeshSystem) createErrorMesh() error {
	data := unitCubeMeshData()
	mesh := &resources.Mesh{
		Name: "__error", Data: data,
		SubMeshes: []resources.SubMesh{{
			Name: "cube", IndexOffset: 0, IndexCount: uint32(len(data.Indices)),
			VertexOffset: 0, VertexCount: uint32(len(data.Vertices)),
		}},
		LoadState: resources.LoadStateLoaded,
	}

	vb, ib, err := ms.backend.CreateMesh(mesh)
	if err != nil {
		return fmt.Errorf("create error mesh: %w", err)
	}
	mesh.BackendVertexBuffer = vb
	mesh.BackendIndexBuffer = ib
	mesh.LastUploadedGeneration = data.Generation

	ms.errorMesh = ms.slots.Allocate(*mesh)
	ms.backend.RegisterMesh(ms.errorMesh, vb, ib)
	return nil
}

func unitCubeMeshData() *resources.MeshData {
	positions := [8]math.Vec3{
		{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
	}
	vertices := make([]resources.Vertex, 8)
	for i, p := range positions {
		vertices[i] = resources.Vertex{Position: p, Normal: math.Vec3{X: 0, Y: 0, Z: 1}, UV0: math.Vec2{X: 0, Y: 0}, Tangent: math.Vec4{X: 1, Y: 0, Z: 0, W: 1}}
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0, // back
		4, 5, 6, 6, 7, 4, // front
		0, 4, 7, 7, 3, 0, // left
		1, 5, 6, 6, 2, 1, // right
		3, 2, 6, 6, 7, 3, // top
		0, 1, 5, 5, 4, 0, // bottom
	}
	return resources.NewMeshData(vertices, indices)
}

// GetHandleFor returns the handle for name, triggering an async load on
// first acquisition.
func (ms *MeshSystem) GetHandleFor(name string) handle.Handle {
	ms.mu.Lock()
	if h, ok := ms.byName[name]; ok {
		ms.refcount[name]++
		ms.mu.Unlock()
		return h
	}

	mesh := resources.Mesh{Name: name, LoadState: resources.LoadStateLoading}
	h := ms.slots.Allocate(mesh)
	if !h.IsValid() {
		ms.mu.Unlock()
		core.LogError("mesh system: capacity exhausted, cannot load %q", name)
		return handle.Invalid
	}
	ms.byName[name] = h
	ms.refcount[name] = 1
	ms.mu.Unlock()

	ms.pipeline.Submit(name, JobPriorityNormal,
		func(n string) (interface{}, error) { return ms.decodeFromDisk(n) },
		func(n string, payload interface{}) error { return ms.uploadToGPU(n, h, payload) },
		func(err error) {
			if err != nil {
				core.LogError("mesh %q failed to load: %s", name, err.Error())
				if slot := ms.slots.Get(h); slot != nil {
					slot.LoadState = resources.LoadStateFailed
				}
			}
		},
	)
	return h
}

// decodeFromDisk parses a ".mesh" text asset: a small key=value/indexed-line
// format in the teacher's material-loader idiom (bufio.Scanner,
// strings.Fields), rather than a general-purpose model importer (out of
// scope: spec.md §1 keeps mesh import as an external collaborator).
//
// Format:
//
//	v <px> <py> <pz> <nx> <ny> <nz> <u> <v>
//	i <a> <b> <c>
//	submesh <name> <indexOffset> <indexCount> <vertexOffset> <vertexCount>
func (ms *MeshSystem) decodeFromDisk(name string) (interface{}, error) {
	f, err := os.Open(filepath.Join(ms.assetRoot, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, err.Error())
	}
	defer f.Close()

	var vertices []resources.Vertex
	var indices []uint32
	var submeshes []resources.SubMesh

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			v, err := parseVertexLine(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", core.ErrResourceCorrupt, lineNo, err.Error())
			}
			vertices = append(vertices, v)
		case "i":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: expected 3 index values", core.ErrResourceCorrupt, lineNo)
			}
			for _, s := range fields[1:] {
				idx, err := strconv.ParseUint(s, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %s", core.ErrResourceCorrupt, lineNo, err.Error())
				}
				indices = append(indices, uint32(idx))
			}
		case "submesh":
			if len(fields) != 6 {
				return nil, fmt.Errorf("%w: line %d: expected name + 4 range values", core.ErrResourceCorrupt, lineNo)
			}
			sm, err := parseSubmeshLine(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s", core.ErrResourceCorrupt, lineNo, err.Error())
			}
			submeshes = append(submeshes, sm)
		default:
			core.LogWarn("mesh %q: unknown line directive %q, skipping", name, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceCorrupt, err.Error())
	}
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("%w: mesh %q has no vertex or index data", core.ErrResourceCorrupt, name)
	}

	vertices = generateNormalsAndTangents(vertices, indices)

	return decodedMesh{vertices: vertices, indices: indices, submeshes: submeshes}, nil
}

// generateNormalsAndTangents regenerates face normals when every vertex
// left its normal at the zero vector (the ".mesh" format doesn't require
// authoring them; a mesh with some authored normals keeps all of them) and
// always regenerates tangents, since the format has no tangent field of
// its own and parseVertexLine only ever fills in a placeholder. Grounded
// on math.GeometryGenerateNormals/GeometryGenerateTangents, kept from the
// teacher's MikkTSpace-style orthogonalization.
func generateNormalsAndTangents(vertices []resources.Vertex, indices []uint32) []resources.Vertex {
	vertexCount := uint32(len(vertices))
	indexCount := uint32(len(indices))

	v3d := make([]math.Vertex3D, vertexCount)
	allZeroNormals := true
	for i, v := range vertices {
		v3d[i] = math.Vertex3D{Position: v.Position, Normal: v.Normal, Texcoord: v.UV0}
		if v.Normal != (math.Vec3{}) {
			allZeroNormals = false
		}
	}
	if allZeroNormals {
		math.GeometryGenerateNormals(vertexCount, v3d, indexCount, indices)
	}
	v3d = math.GeometryGenerateTangents(vertexCount, v3d, indexCount, indices)

	out := make([]resources.Vertex, vertexCount)
	for i, v := range v3d {
		out[i] = resources.Vertex{
			Position: v.Position,
			Normal:   v.Normal,
			UV0:      v.Texcoord,
			Tangent:  math.Vec4{X: v.Tangent.X, Y: v.Tangent.Y, Z: v.Tangent.Z, W: 1},
		}
	}
	return out
}

func parseVertexLine(fields []string) (resources.Vertex, error) {
	if len(fields) != 8 {
		return resources.Vertex{}, fmt.Errorf("expected 8 vertex fields, got %d", len(fields))
	}
	vals := make([]float32, 8)
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return resources.Vertex{}, err
		}
		vals[i] = float32(f)
	}
	return resources.Vertex{
		Position: math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]},
		Normal:   math.Vec3{X: vals[3], Y: vals[4], Z: vals[5]},
		UV0:      math.Vec2{X: vals[6], Y: vals[7]},
		Tangent:  math.Vec4{X: 1, Y: 0, Z: 0, W: 1},
	}, nil
}

func parseSubmeshLine(fields []string) (resources.SubMesh, error) {
	name := fields[0]
	nums := make([]uint64, 4)
	for i, s := range fields[1:] {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return resources.SubMesh{}, err
		}
		nums[i] = n
	}
	return resources.SubMesh{
		Name:         name,
		IndexOffset:  uint32(nums[0]),
		IndexCount:   uint32(nums[1]),
		VertexOffset: uint32(nums[2]),
		VertexCount:  uint32(nums[3]),
	}, nil
}

func (ms *MeshSystem) uploadToGPU(name string, h handle.Handle, payload interface{}) error {
	decoded := payload.(decodedMesh)

	slot := ms.slots.Get(h)
	if slot == nil {
		return fmt.Errorf("%w: mesh slot for %q released before upload completed", core.ErrHandleInvalid, name)
	}

	data := resources.NewMeshData(decoded.vertices, decoded.indices)
	submeshes := decoded.submeshes
	if len(submeshes) == 0 {
		submeshes = []resources.SubMesh{{
			Name: name, IndexOffset: 0, IndexCount: uint32(len(decoded.indices)),
			VertexOffset: 0, VertexCount: uint32(len(decoded.vertices)),
		}}
	}
	for _, sm := range submeshes {
		if !sm.IsWellFormed(data) {
			return fmt.Errorf("%w: submesh %q in %q is not well-formed", core.ErrResourceCorrupt, sm.Name, name)
		}
	}

	slot.Data = data
	slot.SubMeshes = submeshes

	vb, ib, err := ms.backend.CreateMesh(slot)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrBackendTransient, err.Error())
	}
	slot.BackendVertexBuffer = vb
	slot.BackendIndexBuffer = ib
	slot.LastUploadedGeneration = data.Generation
	slot.LoadState = resources.LoadStateLoaded
	ms.backend.RegisterMesh(h, vb, ib)
	return nil
}

// GetPointerFor resolves h, or nil while Loading / the error mesh handle on
// a stale handle or Failed state (spec.md §4.5 mesh fallback policy: nil
// on Loading, error mesh on Failed).
func (ms *MeshSystem) GetPointerFor(h handle.Handle) *resources.Mesh {
	mesh := ms.slots.Get(h)
	if mesh == nil {
		return ms.slots.Get(ms.errorMesh)
	}
	switch mesh.LoadState {
	case resources.LoadStateLoading:
		return nil
	case resources.LoadStateFailed:
		return ms.slots.Get(ms.errorMesh)
	default:
		return mesh
	}
}

// Release decrements name's reference count, destroying backend buffers
// and freeing the slot once the count reaches zero.
func (ms *MeshSystem) Release(name string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	h, ok := ms.byName[name]
	if !ok {
		return
	}
	ms.refcount[name]--
	if ms.refcount[name] > 0 {
		return
	}

	if mesh := ms.slots.Get(h); mesh != nil {
		ms.backend.DestroyMesh(mesh.BackendVertexBuffer, mesh.BackendIndexBuffer)
	}
	ms.slots.Release(h)
	delete(ms.byName, name)
	delete(ms.refcount, name)
}

// Shutdown releases the error-fallback mesh's backend buffers.
func (ms *MeshSystem) Shutdown() {
	if mesh := ms.slots.Get(ms.errorMesh); mesh != nil {
		ms.backend.DestroyMesh(mesh.BackendVertexBuffer, mesh.BackendIndexBuffer)
	}
}
