package engine

import (
	"fmt"
	"sync"

	"github.com/voidarchitect/corevk/engine/config"
	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/platform"
	"github.com/voidarchitect/corevk/engine/rendergraph"
	"github.com/voidarchitect/corevk/engine/renderer/vulkan"
	"github.com/voidarchitect/corevk/engine/systems"
)

// ApplicationConfig describes the window an application wants; separate
// from config.EngineConfig, which covers engine-internal capacities and
// worker counts (spec.md §1 keeps these concerns apart).
type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
}

type applicationState struct {
	GameInstance  *Game
	IsRunning     bool
	IsSuspended   bool
	PlatformState *platform.Platform
	Width         uint32
	Height        uint32
	Clock         *core.Clock
	LastTime      float64

	Config  *config.EngineConfig
	Systems *systems.SystemManager

	Backend  *vulkan.RHI
	Compiler *rendergraph.Compiler
	Executor *rendergraph.Executor
}

var newApplication sync.Once

var (
	initialize bool = false
	appState   *applicationState
)

// ApplicationCreate boots the platform window, the Vulkan RHI, every
// resource system, and the render graph compiler/executor, then runs the
// game's own Initialize hook (spec.md §2 components A-F wired together).
func ApplicationCreate(gameInstance *Game, cfg *config.EngineConfig) error {
	if initialize {
		return fmt.Errorf("application already initialized")
	}

	newApplication.Do(func() {
		appState = &applicationState{
			GameInstance: gameInstance,
			Clock:        core.NewClock(),
			IsRunning:    true,
			IsSuspended:  false,
			Width:        cfg.Width,
			Height:       cfg.Height,
			LastTime:     0,
			Config:       cfg,
		}
	})

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, 0, applicationOnEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, 0, applicationOnKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, 0, applicationOnKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, 0, applicationOnResized)

	p, err := platform.New()
	if err != nil {
		return err
	}
	appState.PlatformState = p

	if err := p.Startup(appState.GameInstance.ApplicationConfig.Name,
		appState.GameInstance.ApplicationConfig.StartPosX,
		appState.GameInstance.ApplicationConfig.StartPosY,
		appState.GameInstance.ApplicationConfig.StartWidth,
		appState.GameInstance.ApplicationConfig.StartHeight); err != nil {
		return err
	}

	backend, err := vulkan.NewRHI(p, cfg.AppName, cfg.Width, cfg.Height)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrBackendFatal, err.Error())
	}
	appState.Backend = backend

	sm, err := systems.NewSystemManager(cfg, backend)
	if err != nil {
		return err
	}
	appState.Systems = sm
	gameInstance.SystemManager = sm

	appState.Compiler = rendergraph.NewCompiler(sm.RenderPassCache)
	appState.Executor = rendergraph.NewExecutor(backend, sm.RenderPassCache)

	if gameInstance.FnInitialize != nil {
		if err := gameInstance.FnInitialize(sm); err != nil {
			return err
		}
	}

	if gameInstance.FnOnResize != nil {
		if err := gameInstance.FnOnResize(appState.Width, appState.Height); err != nil {
			return err
		}
	}

	initialize = true

	return nil
}

// ApplicationRun drives the frame loop until an application-quit event
// flips appState.IsRunning false (spec.md §4.9, §5 "application owns the
// main thread and runs the frame loop on it").
func ApplicationRun() error {
	appState.Clock.Start()
	appState.Clock.Update()
	appState.LastTime = appState.Clock.Elapsed()

	for appState.IsRunning {
		appState.PlatformState.PumpMessages()

		if appState.IsSuspended {
			continue
		}

		appState.Clock.Update()
		currentTime := appState.Clock.Elapsed()
		deltaTime := currentTime - appState.LastTime
		appState.LastTime = currentTime

		appState.Systems.JobSystem.RunMainThreadJobs()

		if appState.GameInstance.FnUpdate != nil {
			if err := appState.GameInstance.FnUpdate(deltaTime); err != nil {
				core.LogError("game update failed: %s", err.Error())
				appState.IsRunning = false
				break
			}
		}

		if err := renderFrame(deltaTime); err != nil {
			core.LogError("render frame failed: %s", err.Error())
		}
	}

	return nil
}

// renderFrame implements spec.md §4.9's render_frame(dt): fresh builder,
// import persistent viewport targets, let the game declare passes,
// compile, begin_frame, execute, end_frame.
func renderFrame(dt float64) error {
	b := rendergraph.NewBuilder()
	b.ImportRenderTarget(rendergraph.ViewportColor, appState.Backend.GetCurrentColorRenderTargetHandle())
	b.ImportRenderTarget(rendergraph.ViewportDepth, appState.Backend.GetDepthRenderTargetHandle())

	if appState.GameInstance.FnBuildFrame != nil {
		if err := appState.GameInstance.FnBuildFrame(b, dt); err != nil {
			return err
		}
	}

	plan, err := appState.Compiler.Compile(b)
	if err != nil {
		core.LogError("render graph compile failed: %s", err.Error())
		return err
	}
	if len(plan.Steps) == 0 {
		core.LogDebug("render frame: empty plan, nothing to render")
		return nil
	}

	ok, err := appState.Backend.BeginFrame(dt)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	frame := rendergraph.FrameData{DeltaTime: dt}
	if err := appState.Executor.Execute(plan, frame); err != nil {
		return err
	}

	if _, err := appState.Backend.EndFrame(dt); err != nil {
		return err
	}
	return nil
}

// ApplicationGetFramebufferSize returns the width and height (in this
// order) of the application framebuffer.
func ApplicationGetFramebufferSize() (uint32, uint32) {
	if appState == nil {
		return 0, 0
	}
	return appState.Width, appState.Height
}

func applicationOnEvent(code core.SystemEventCode, sender interface{}, listener_inst interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		{
			core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.\n")
			appState.IsRunning = false
			return true
		}
	}
	return false
}

func applicationOnKey(code core.SystemEventCode, sender interface{}, listener_inst interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_KEY_PRESSED {
		key_code := context.Data.U16[0]
		if key_code == uint16(core.KEY_ESCAPE) {
			// NOTE: Technically firing an event to itself, but there may be other listeners.
			data := core.EventContext{}
			core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, 0, data)
			// Block anything else from processing this.
			return true
		} else if key_code == uint16(core.KEY_A) {
			// Example on checking for a key
			core.LogDebug("Explicit - A key pressed!")
		} else {
			core.LogDebug("'%c' key pressed in window.", key_code)
		}
	} else if code == core.EVENT_CODE_KEY_RELEASED {
		key_code := context.Data.U16[0]
		if key_code == uint16(core.KEY_B) {
			// Example on checking for a key
			core.LogDebug("Explicit - B key released!")
		} else {
			core.LogDebug("'%c' key released in window.", key_code)
		}
	}
	return false
}

func applicationOnResized(code core.SystemEventCode, sender interface{}, listener_inst interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_RESIZED {
		width := context.Data.U16[0]
		height := context.Data.U16[1]

		if width != uint16(appState.Width) || height != uint16(appState.Height) {
			appState.Width = uint32(width)
			appState.Height = uint32(height)

			core.LogDebug("Window resize: %d, %d", width, height)

			if width == 0 || height == 0 {
				core.LogInfo("Window minimized, suspending application.")
				appState.IsSuspended = true
				return true
			}

			if appState.IsSuspended {
				core.LogInfo("Window restored, resuming application.")
				appState.IsSuspended = false
			}

			if err := appState.Backend.Resize(appState.Width, appState.Height); err != nil {
				core.LogError("swapchain resize failed: %s", err.Error())
			}
			appState.Systems.InvalidateCaches()

			if appState.GameInstance.FnOnResize != nil {
				appState.GameInstance.FnOnResize(appState.Width, appState.Height)
			}
		}
	}
	// Event purposely not handled to allow other listeners to get this.
	return false
}
