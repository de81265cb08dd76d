// Package reclass is the embedding interface described in spec section
// 6: a host program builds a Reclass over a nodes/classes tree plus a
// Config, then renders the whole inventory or a single node.
package reclass

import (
	"context"
	"sync/atomic"

	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rindex"
	"github.com/opmodel/reclass/internal/renderer"
)

// NodeResult is one node's fully rendered state.
type NodeResult = renderer.NodeResult

// Inventory is the result of rendering every node.
type Inventory = renderer.Inventory

// Reclass resolves a single inventory (one nodes_path/classes_path pair
// plus its effective Config).
type Reclass struct {
	idx *rindex.Index
	cfg rconfig.Config
	r   *renderer.Renderer
}

// New builds a Reclass by walking nodesPath and classesPath under cfg.
// cfg.NodesPath/ClassesPath are overridden with nodesPath/classesPath so
// callers may pass a Config loaded from reclass-config.yml (spec section
// 4.1) without having to re-populate the path fields themselves.
func New(nodesPath, classesPath string, cfg rconfig.Config) (*Reclass, error) {
	cfg.NodesPath = nodesPath
	cfg.ClassesPath = classesPath

	idx, err := rindex.Build(cfg)
	if err != nil {
		return nil, err
	}
	r, err := renderer.New(idx, cfg)
	if err != nil {
		return nil, err
	}
	return &Reclass{idx: idx, cfg: cfg, r: r}, nil
}

// RenderInventory renders every discovered node in parallel (spec section
// 4.8), bounded by the effective thread count (Config.Threads, or the
// process-wide override from SetThreadCount, or GOMAXPROCS).
func (rc *Reclass) RenderInventory(ctx context.Context) (*Inventory, error) {
	rc.applyThreadOverride()
	return rc.r.RenderInventory(ctx)
}

// RenderNode renders one node in isolation.
func (rc *Reclass) RenderNode(ctx context.Context, name string) (*NodeResult, error) {
	rc.applyThreadOverride()
	return rc.r.RenderNode(ctx, name)
}

// NodeNames returns every node discovered under nodesPath, sorted.
func (rc *Reclass) NodeNames() []string {
	return rc.idx.NodeNames()
}

// threadOverride is the process-wide worker-count override installed by
// SetThreadCount; 0 means "no override, use Config.Threads/GOMAXPROCS".
// Kept as a package-level atomic because reclass-rs's set_thread_count is
// itself a process-wide, call-once-ideally knob (spec section 6), not a
// per-Reclass setting.
var threadOverride atomic.Int64

// SetThreadCount installs a process-wide override for every Reclass's
// render concurrency. n <= 0 clears the override (GOMAXPROCS applies
// unless a Config specifies its own Threads).
func SetThreadCount(n int) {
	if n <= 0 {
		threadOverride.Store(0)
		return
	}
	threadOverride.Store(int64(n))
}

// applyThreadOverride lets a prior SetThreadCount call win over the
// Config this Reclass was built with, mirroring reclass-rs's legacy
// global knob.
func (rc *Reclass) applyThreadOverride() {
	if n := threadOverride.Load(); n > 0 {
		rc.r.SetThreads(int(n))
		return
	}
	rc.r.SetThreads(rc.cfg.Threads)
}
