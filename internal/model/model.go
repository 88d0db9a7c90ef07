package model

import (
	"sync"
	"time"

	"github.com/ekisa-team/paravox/internal/config"
)

// ModelStatus is the current loading status of a model.
type ModelStatus string

const (
	// ModelStatusUnloaded indicates that the model is not loaded.
	ModelStatusUnloaded ModelStatus = "unloaded"

	// ModelStatusLoading indicates that the model is being loaded.
	ModelStatusLoading ModelStatus = "loading"

	// ModelStatusLoaded indicates that the model is loaded.
	ModelStatusLoaded ModelStatus = "loaded"

	// ModelStatusFailed indicates that the model failed to load.
	ModelStatusFailed ModelStatus = "failed"
)

// Instance represents a configured model and its load state.
type Instance struct {
	Config   *config.ModelConfig
	loadedAt *time.Time
	ID       string
	Path     string
	status   ModelStatus
	err      string
	mu       sync.RWMutex
}

// Info is a point-in-time view of an Instance.
type Info struct {
	LoadedAt *time.Time  `json:"loaded_at,omitempty"`
	ID       string      `json:"id"`
	Backend  string      `json:"backend"`
	Status   ModelStatus `json:"status"`
	Error    string      `json:"error,omitempty"`
}

// NewInstance creates a new model instance.
func NewInstance(cfg *config.ModelConfig, id, path string) *Instance {
	return &Instance{
		ID:     id,
		Path:   path,
		Config: cfg,
		status: ModelStatusUnloaded,
	}
}

// SetStatus sets the status of the model instance.
func (mi *Instance) SetStatus(status ModelStatus) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.status = status
	if status == ModelStatusLoaded {
		now := time.Now()
		mi.loadedAt = &now
		mi.err = ""
	}
}

// SetError marks the instance failed with err.
func (mi *Instance) SetError(err error) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.status = ModelStatusFailed
	mi.err = err.Error()
}

// Status returns the current status.
func (mi *Instance) Status() ModelStatus {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	return mi.status
}

// Ready reports whether the model can serve inference.
func (mi *Instance) Ready() bool {
	return mi.Status() == ModelStatusLoaded
}

// Info returns a snapshot of the instance.
func (mi *Instance) Info() Info {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	info := Info{
		ID:       mi.ID,
		Status:   mi.status,
		Error:    mi.err,
		LoadedAt: mi.loadedAt,
	}
	if mi.Config != nil {
		info.Backend = mi.Config.Backend
	}

	return info
}
