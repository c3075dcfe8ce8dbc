package engine

import (
	"github.com/voidarchitect/corevk/engine/rendergraph"
	"github.com/voidarchitect/corevk/engine/systems"
)

// Game is the application's hook set into the engine's boot and frame
// lifecycle (spec.md §4.9). The engine owns the frame loop; Game supplies
// the per-frame render graph declaration and any app-level update logic.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnBuildFrame      BuildFrame
	FnOnResize        OnResize
}

// Initialize runs once SystemManager is ready, letting the app register
// material templates, kick off initial resource loads, etc.
type Initialize func(sm *systems.SystemManager) error

// Update runs once per frame before BuildFrame, for non-rendering game
// logic (input, simulation).
type Update func(deltaTime float64) error

// BuildFrame declares this frame's render graph against b (spec.md §4.9
// step 1-2: import persistent targets happens before this is called;
// add_pass calls belong here).
type BuildFrame func(b *rendergraph.Builder, deltaTime float64) error

// OnResize is called after the engine has recreated the swapchain and
// invalidated its permutation caches.
type OnResize func(width uint32, height uint32) error
