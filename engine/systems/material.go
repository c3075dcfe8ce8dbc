package systems

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/math"
	"github.com/voidarchitect/corevk/engine/resources"
)

// DefaultMaterialName is returned for an empty material name request, the
// same contract the teacher's material system exposes.
const DefaultMaterialName string = "default"

// MaterialSystem owns registered MaterialTemplates and the Material
// instances created from them, resolving texture references against a
// TextureSystem (spec.md §4.2).
type MaterialSystem struct {
	mu        sync.Mutex
	templates map[string]*resources.MaterialTemplate

	slots    *handle.SlotTable[resources.Material]
	byUUID   map[uuid.UUID]handle.Handle
	refcount map[uuid.UUID]int

	textures  *TextureSystem
	assetRoot string

	defaultMaterial uuid.UUID
}

// NewMaterialSystem builds a material system with room for capacity
// instances, and registers the built-in default material template.
func NewMaterialSystem(capacity int, assetRoot string, textures *TextureSystem) *MaterialSystem {
	ms := &MaterialSystem{
		templates: make(map[string]*resources.MaterialTemplate),
		slots:     handle.NewSlotTable[resources.Material](capacity),
		byUUID:    make(map[uuid.UUID]handle.Handle),
		refcount:  make(map[uuid.UUID]int),
		textures:  textures,
		assetRoot: assetRoot,
	}
	ms.RegisterTemplate(&resources.MaterialTemplate{
		Name:         DefaultMaterialName,
		Class:        resources.MaterialClassStandard,
		DiffuseColor: math.Vec4{X: 1, Y: 1, Z: 1, W: 1},
	})
	h, _ := ms.Instantiate(DefaultMaterialName)
	if m := ms.slots.Get(h); m != nil {
		ms.defaultMaterial = m.UUID
	}
	return ms
}

// RegisterTemplate records tmpl under its name, replacing any prior
// template with that name (spec.md §4.2 register_template).
func (ms *MaterialSystem) RegisterTemplate(tmpl *resources.MaterialTemplate) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.templates[tmpl.Name] = tmpl
}

// LoadTemplateFile parses a ".mat" text asset in the teacher's key=value
// idiom (grounded on assets/loaders/material.go's parseAMTFile) and
// registers the resulting template.
func (ms *MaterialSystem) LoadTemplateFile(filename string) (*resources.MaterialTemplate, error) {
	f, err := os.Open(filepath.Join(ms.assetRoot, filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, err.Error())
	}
	defer f.Close()

	tmpl := &resources.MaterialTemplate{DiffuseColor: math.Vec4{X: 1, Y: 1, Z: 1, W: 1}}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			core.LogWarn("material template %q: skipping invalid line %q", filename, line)
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "name":
			tmpl.Name = value
		case "class":
			if value == "ui" {
				tmpl.Class = resources.MaterialClassUI
			}
		case "diffuse_colour":
			v, err := parseVec4(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", core.ErrResourceCorrupt, err.Error())
			}
			tmpl.DiffuseColor = v
		case "diffuse_map_name":
			tmpl.TextureRefs = append(tmpl.TextureRefs, resources.TextureRef{Name: value, Use: resources.TextureUseDiffuse})
		case "specular_map_name":
			tmpl.TextureRefs = append(tmpl.TextureRefs, resources.TextureRef{Name: value, Use: resources.TextureUseSpecular})
		case "normal_map_name":
			tmpl.TextureRefs = append(tmpl.TextureRefs, resources.TextureRef{Name: value, Use: resources.TextureUseNormal})
		default:
			core.LogWarn("material template %q: unknown key %q, skipping", filename, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceCorrupt, err.Error())
	}
	if tmpl.Name == "" {
		return nil, fmt.Errorf("%w: material template %q has no name", core.ErrResourceCorrupt, filename)
	}

	ms.RegisterTemplate(tmpl)
	return tmpl, nil
}

func parseVec4(value string) (math.Vec4, error) {
	fields := strings.Fields(value)
	if len(fields) != 4 {
		return math.Vec4{}, fmt.Errorf("expected 4 values, got %d", len(fields))
	}
	vals := make([]float32, 4)
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return math.Vec4{}, err
		}
		vals[i] = float32(f)
	}
	return math.Vec4{X: vals[0], Y: vals[1], Z: vals[2], W: vals[3]}, nil
}

// Instantiate creates a Material from a previously-registered template,
// resolving its TextureRefs into handles via the TextureSystem.
func (ms *MaterialSystem) Instantiate(templateName string) (handle.Handle, error) {
	ms.mu.Lock()
	tmpl, ok := ms.templates[templateName]
	ms.mu.Unlock()
	if !ok {
		return handle.Invalid, fmt.Errorf("%w: material template %q not registered", core.ErrResourceNotFound, templateName)
	}

	material := resources.Material{UUID: uuid.New(), Template: tmpl}

	refByUse := make(map[resources.TextureUse]resources.TextureRef, len(tmpl.TextureRefs))
	for _, ref := range tmpl.TextureRefs {
		refByUse[ref.Use] = ref
	}

	// Every use gets a handle: a named reference resolves through the
	// texture system, and an empty or missing reference substitutes that
	// use's builtin placeholder (spec.md §4.2: "substituting defaults when
	// a reference is empty or missing").
	uses := []resources.TextureUse{resources.TextureUseDiffuse, resources.TextureUseSpecular, resources.TextureUseNormal}
	for _, use := range uses {
		var h handle.Handle
		if ref, ok := refByUse[use]; ok && ref.Name != "" {
			h = ms.textures.GetHandleFor(ref.Name, use)
		} else {
			h = ms.textures.DefaultHandleFor(use)
		}
		switch use {
		case resources.TextureUseDiffuse:
			material.DiffuseTexture = h
		case resources.TextureUseSpecular:
			material.SpecularTexture = h
		case resources.TextureUseNormal:
			material.NormalTexture = h
		}
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	h := ms.slots.Allocate(material)
	if !h.IsValid() {
		core.LogError("material system: capacity exhausted, cannot instantiate %q", templateName)
		return handle.Invalid, core.ErrCapacityExhausted
	}
	ms.byUUID[material.UUID] = h
	ms.refcount[material.UUID] = 1

	if backend, err := ms.textures.backend.CreateMaterial(&material); err == nil {
		if m := ms.slots.Get(h); m != nil {
			m.BackendBindingGroup = backend
		}
		ms.textures.backend.RegisterMaterial(h, backend)
	} else {
		core.LogWarn("material %q: backend creation failed, proceeding unbound: %s", templateName, err.Error())
	}
	return h, nil
}

// GetPointerFor resolves h to its live Material.
func (ms *MaterialSystem) GetPointerFor(h handle.Handle) (*resources.Material, error) {
	m := ms.slots.Get(h)
	if m == nil {
		return nil, core.ErrHandleInvalid
	}
	return m, nil
}

// GetDefault returns the handle of the built-in default material.
func (ms *MaterialSystem) GetDefault() handle.Handle {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.byUUID[ms.defaultMaterial]
}

// Acquire increments h's reference count.
func (ms *MaterialSystem) Acquire(h handle.Handle) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	m := ms.slots.Get(h)
	if m == nil {
		return
	}
	ms.refcount[m.UUID]++
}

// Release decrements h's reference count, releasing its texture references
// and its own slot once the count reaches zero.
func (ms *MaterialSystem) Release(h handle.Handle) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	m := ms.slots.Get(h)
	if m == nil {
		return
	}
	ms.refcount[m.UUID]--
	if ms.refcount[m.UUID] > 0 {
		return
	}

	for _, ref := range m.Template.TextureRefs {
		ms.textures.Release(ref.Name)
	}
	if m.BackendBindingGroup != nil {
		ms.textures.backend.DestroyMaterial(m.BackendBindingGroup)
	}
	ms.slots.Release(h)
	delete(ms.byUUID, m.UUID)
	delete(ms.refcount, m.UUID)
}
