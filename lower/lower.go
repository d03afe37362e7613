package lower

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/goguard/bridgelower/ir"
)

// Options tune Run.
type Options struct {
	// Parallelism caps the number of classes lowered at once.
	// Zero means GOMAXPROCS.
	Parallelism int
	Logger      *slog.Logger
}

// Stats summarizes one Run.
type Stats struct {
	Classes        int `json:"classes"`
	BridgesAdded   int `json:"bridges_added"`
	CallsRewritten int `json:"calls_rewritten"`
	CallsVirtual   int `json:"calls_virtual"`
}

// Run lowers a linked unit in place: it first adds bridges to every class,
// then rewrites every method body, bridges included. Any descriptor the
// rewriter handed out that no class declares yet is materialized last.
// The first consistency error aborts the run.
func Run(ctx context.Context, unit *ir.Unit, oracle Oracle, opts Options) (*Stats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	registry := NewRegistry(oracle)
	builder := NewBridgeBuilder(oracle, registry)
	rewriter := NewCallRewriter(oracle, registry)

	var bridges, rewritten, virtual atomic.Int64
	rewriter.OnRewrite = func(old, new *ir.Call) { rewritten.Add(1) }
	rewriter.OnVirtual = func(*ir.Call) { virtual.Add(1) }

	classes := unit.SortedClasses()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, class := range classes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			added, err := builder.BuildBridges(class)
			if err != nil {
				return err
			}
			for _, b := range added {
				log.Debug("bridge added", "class", class.Name, "bridge", b.ID)
			}
			bridges.Add(int64(len(added)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building bridges: %w", err)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, class := range classes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, m := range class.Members() {
				if err := rewriter.RewriteBody(m); err != nil {
					return fmt.Errorf("method %s: %w", m.ID, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rewriting calls: %w", err)
	}

	n, err := materializeRequested(unit, oracle, registry)
	if err != nil {
		return nil, err
	}
	bridges.Add(int64(n))

	stats := &Stats{
		Classes:        len(classes),
		BridgesAdded:   int(bridges.Load()),
		CallsRewritten: int(rewritten.Load()),
		CallsVirtual:   int(virtual.Load()),
	}
	log.Info("lowered unit", "unit", unit.Name, "classes", stats.Classes,
		"bridges", stats.BridgesAdded, "rewritten", stats.CallsRewritten, "virtual", stats.CallsVirtual)
	return stats, nil
}

// materializeRequested adds the descriptors only call sites asked for
// (delegation bridges) to their classes.
func materializeRequested(unit *ir.Unit, oracle Oracle, registry *Registry) (int, error) {
	added := 0
	for _, d := range registry.Descriptors() {
		class := unit.Class(d.Class)
		if class == nil {
			return added, inconsistent(d.Class, d.ID, "bridge declared in unknown class")
		}
		if class.HasMember(d.ID) {
			continue
		}
		overridden := d.Overridden()
		if len(overridden) != 1 {
			return added, inconsistent(d.Class, d.ID, "bridge overrides %d methods", len(overridden))
		}
		target := oracle.MostSpecificImplementation(overridden[0])
		if target == nil {
			return added, inconsistent(d.Class, d.ID, "no concrete implementation behind bridge")
		}
		if err := Materialize(d, target); err != nil {
			return added, err
		}
		class.Methods = append(class.Methods, d)
		added++
	}
	return added, nil
}
