package chart

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ModelCanvasID is the canvas of the model importance chart.
const ModelCanvasID = "model-importances"

// FeatureCanvasID is the canvas of a prediction's feature bar chart.
func FeatureCanvasID(predictionID int64) string {
	return fmt.Sprintf("features-%d", predictionID)
}

// ConfidenceCanvasID is the canvas of a prediction's confidence doughnut.
func ConfidenceCanvasID(predictionID int64) string {
	return fmt.Sprintf("confidence-%d", predictionID)
}

// Instance is a chart drawn on one canvas. It is live until destroyed.
type Instance struct {
	CanvasID string
	Config   Config

	mu        sync.Mutex
	destroyed bool
}

// Destroy marks the instance as released. It is safe to call more than once.
func (i *Instance) Destroy() {
	i.mu.Lock()
	i.destroyed = true
	i.mu.Unlock()
}

// Destroyed reports whether the instance has been released.
func (i *Instance) Destroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}

// Registry owns the live chart instances of one page, at most one per canvas.
type Registry struct {
	mu     sync.Mutex
	live   map[string]*Instance
	logger logrus.FieldLogger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger logrus.FieldLogger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		live:   make(map[string]*Instance),
		logger: logger,
	}
}

// Acquire creates a chart on canvasID, destroying any chart already there.
func (r *Registry) Acquire(canvasID string, cfg Config) *Instance {
	inst := &Instance{CanvasID: canvasID, Config: cfg}

	r.mu.Lock()
	prev := r.live[canvasID]
	r.live[canvasID] = inst
	r.mu.Unlock()

	if prev != nil {
		prev.Destroy()
		r.logger.WithField("canvas", canvasID).Debug("replaced chart instance")
	}
	return inst
}

// Release destroys the chart on canvasID. It reports whether one was live.
func (r *Registry) Release(canvasID string) bool {
	r.mu.Lock()
	inst, ok := r.live[canvasID]
	delete(r.live, canvasID)
	r.mu.Unlock()

	if ok {
		inst.Destroy()
	}
	return ok
}

// Configs returns a copy of every live chart configuration keyed by canvas.
func (r *Registry) Configs() map[string]Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Config, len(r.live))
	for id, inst := range r.live {
		out[id] = inst.Config
	}
	return out
}

// Close destroys every live chart.
func (r *Registry) Close() {
	r.mu.Lock()
	live := r.live
	r.live = make(map[string]*Instance)
	r.mu.Unlock()

	for _, inst := range live {
		inst.Destroy()
	}
}
