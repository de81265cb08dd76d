// Package renderer implements the driver of spec section 4.8: it wires
// together the inventory index, the class expander and the interpolator
// to produce one fully-resolved NodeResult per node, and renders the
// whole inventory in parallel with deterministic, sorted-key-order
// output.
//
// Grounded on the teacher's cmd/opm concurrency idiom for the worker
// pool shape and, per SPEC_FULL.md, on
// united-manufacturing-hub-united-manufacturing-hub's
// pkg/control/loop.go, which builds a bounded errgroup
// (errgroup.WithContext + SetLimit) to run a fixed set of independent
// units of work concurrently and collect their errors.
package renderer

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/reclass/internal/expand"
	"github.com/opmodel/reclass/internal/interp"
	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rerrors"
	"github.com/opmodel/reclass/internal/rindex"
	"github.com/opmodel/reclass/internal/rlog"
	"github.com/opmodel/reclass/internal/rvalue"
)

// NodeResult is one node's fully rendered state (spec section 4.8's
// "classes, applications, parameters, exports, environment").
type NodeResult struct {
	Classes      []string
	Applications []string
	Parameters   *rvalue.Value
	Exports      *rvalue.Value
	Environment  string
}

// Inventory is the result of rendering every node (spec section 4.8).
type Inventory struct {
	// Names is every rendered node's name, sorted (spec section 5's
	// ordering guarantee).
	Names []string

	Nodes map[string]*NodeResult

	// Failures maps a node name to the error that aborted its render.
	// Non-empty Failures makes RenderInventory return a non-nil error,
	// but every node that did succeed is still present in Nodes.
	Failures map[string]error
}

// Renderer drives inventory resolution over one Index/Config pair.
type Renderer struct {
	idx      *rindex.Index
	cfg      rconfig.Config
	expander *expand.Expander
}

// New builds a Renderer over idx and cfg.
func New(idx *rindex.Index, cfg rconfig.Config) (*Renderer, error) {
	ex, err := expand.New(idx, cfg, warnFunc(cfg))
	if err != nil {
		return nil, err
	}
	return &Renderer{idx: idx, cfg: cfg, expander: ex}, nil
}

// SetThreads overrides the worker-pool bound RenderInventory uses, letting
// a host program (the module-root Reclass.SetThreadCount) change
// concurrency after construction.
func (r *Renderer) SetThreads(n int) {
	r.cfg.Threads = n
}

// warnFunc routes a diagnostic through rlog at Warn or Debug severity
// depending on verbose_warnings (spec section 4.10).
func warnFunc(cfg rconfig.Config) func(location, msg string) {
	return func(location, msg string) {
		if cfg.VerboseWarnings {
			rlog.Warn(msg, "at", location)
			return
		}
		rlog.Debug(msg, "at", location)
	}
}

// RenderNode expands and interpolates a single node, in isolation from
// any other node's render. ctx is observed only at entry, so a host
// program can cancel a render that has not yet started; the per-node
// work itself is not a candidate for mid-flight cancellation (spec
// section 5).
func (r *Renderer) RenderNode(ctx context.Context, name string) (*NodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expanded, err := r.expander.ExpandNode(name)
	if err != nil {
		return nil, err
	}

	interp.InjectMetadata(expanded.Parameters, name, interp.NodeMeta{
		Environment: expanded.Environment,
		Parts:       r.idx.NodeNameParts(name),
	})

	in := interp.New(expanded.Parameters, warnFunc(r.cfg))
	params, err := in.Run()
	if err != nil {
		return nil, err
	}

	return &NodeResult{
		Classes:      expanded.Classes,
		Applications: expanded.Applications,
		Parameters:   params,
		Exports:      expanded.Exports,
		Environment:  expanded.Environment,
	}, nil
}

// RenderInventory renders every node the Index discovered, in parallel,
// bounded by cfg.Threads workers (0 resolves to GOMAXPROCS). It returns
// a non-nil error if any node failed, but Inventory.Nodes still holds
// every node that succeeded. A cancelled ctx stops nodes that have not
// yet started rendering; nodes already in flight still finish.
func (r *Renderer) RenderInventory(ctx context.Context) (*Inventory, error) {
	names := r.idx.NodeNames()
	limit := r.cfg.Threads
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*NodeResult, len(names))
	errs := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := r.RenderNode(gctx, name)
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	inv := &Inventory{
		Names:    make([]string, 0, len(names)),
		Nodes:    make(map[string]*NodeResult, len(names)),
		Failures: make(map[string]error),
	}
	for i, name := range names {
		if errs[i] != nil {
			inv.Failures[name] = errs[i]
			continue
		}
		inv.Names = append(inv.Names, name)
		inv.Nodes[name] = results[i]
	}
	sort.Strings(inv.Names)

	if len(inv.Failures) > 0 {
		failedNames := make([]string, 0, len(inv.Failures))
		for name := range inv.Failures {
			failedNames = append(failedNames, name)
		}
		sort.Strings(failedNames)
		return inv, rerrors.New(rerrors.ErrRenderFailed, "one or more nodes failed to render").
			WithContext("nodes", joinNames(failedNames))
	}
	return inv, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}
