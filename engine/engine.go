package engine

import (
	"github.com/voidarchitect/corevk/engine/config"
	"github.com/voidarchitect/corevk/engine/core"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	game         *Game
	config       *config.EngineConfig
}

// New returns an Engine bound to g, loaded from the TOML document at
// configPath (config.Default() capacities if the file is absent).
func New(g *Game, configPath string) (*Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		game:         g,
		config:       cfg,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := ApplicationCreate(e.game, e.config); err != nil {
		core.LogError(err.Error())
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	if err := ApplicationRun(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if appState != nil && appState.Backend != nil {
		if err := appState.Backend.WaitIdle(); err != nil {
			core.LogError("shutdown: wait idle failed: %s", err.Error())
		}
	}
	if appState != nil && appState.Systems != nil {
		if err := appState.Systems.Shutdown(); err != nil {
			return err
		}
	}
	if appState != nil && appState.PlatformState != nil {
		if err := appState.PlatformState.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
