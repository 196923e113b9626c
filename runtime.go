package gaffa

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/fgenesis/gaffa/internal/rtlog"
	"github.com/fgenesis/gaffa/rterr"
)

// RuntimeConfig controls the heap a Runtime is built over. Zero value is
// valid; NewRuntime fills in defaults for anything left unset, the way
// moby's daemon/config layers a base config through option funcs before
// validating it.
type RuntimeConfig struct {
	Alloc           AllocFunc
	AllocUD         interface{}
	Logger          rtlog.Logger
	InitialStackLen int
	StringPoolCap   int

	// GCStepBudget is the abstract work-unit budget passed to one gcStep
	// call by Collect and runToCompletion's driving loop, the GOGC-style
	// pacing knob: a larger budget finishes a cycle in fewer Collect calls
	// at the cost of longer individual pauses.
	GCStepBudget int
}

// Option mutates a RuntimeConfig being built up by NewRuntime.
type Option func(*RuntimeConfig)

func WithAllocator(fn AllocFunc, ud interface{}) Option {
	return func(c *RuntimeConfig) { c.Alloc = fn; c.AllocUD = ud }
}

func WithLogger(l rtlog.Logger) Option {
	return func(c *RuntimeConfig) { c.Logger = l }
}

func WithInitialStackLen(n int) Option {
	return func(c *RuntimeConfig) { c.InitialStackLen = n }
}

func WithStringPoolCap(n int) Option {
	return func(c *RuntimeConfig) { c.StringPoolCap = n }
}

func WithGCStepBudget(n int) Option {
	return func(c *RuntimeConfig) { c.GCStepBudget = n }
}

// Runtime owns one heap: a GC, its bound StringPool, a TypeRegistry, and a
// root SymTable, plus the allocator and logger every component inside it
// shares. A process may host several independent Runtimes.
type Runtime struct {
	ID uuid.UUID

	GC      *GC
	Strings *StringPool
	Types   *TypeRegistry
	Env     *SymTable

	alloc           allocator
	logger          rtlog.Logger
	gcStepBudget    int
	initialStackLen int
}

// NewRuntime builds a Runtime: the allocator and logger first (since GC
// construction needs both), then the GC, then the StringPool bound to it,
// then the TypeRegistry and root SymTable; this is the two-phase
// gcinit()-then-bootstrap construction order gc.go's newGC comment
// documents.
func NewRuntime(opts ...Option) (*Runtime, error) {
	cfg := RuntimeConfig{
		Alloc:           DefaultAllocator,
		InitialStackLen: minStack * 4,
		StringPoolCap:   64,
		GCStepBudget:    256,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = rtlog.Discard()
	}
	if cfg.Alloc == nil {
		return nil, rterr.Wrap(rterr.NewCodeError(rterr.AllocFail), "NewRuntime: nil AllocFunc")
	}

	id := uuid.New()
	logger := rtlog.ForRuntime(cfg.Logger, id.String())

	alc := allocator{fn: cfg.Alloc, ud: cfg.AllocUD}
	gc := newGC(alc, logger)
	sp := newStringPool(gc, alc, cfg.StringPoolCap)

	rt := &Runtime{
		ID:              id,
		GC:              gc,
		Strings:         sp,
		Types:           newTypeRegistry(),
		alloc:           alc,
		logger:          logger,
		gcStepBudget:    cfg.GCStepBudget,
		initialStackLen: cfg.InitialStackLen,
	}
	rt.Env = newSymTable(gc, sp)
	gc.pin(rt.Env)
	return rt, nil
}

// NewVM starts a new execution thread over this Runtime's heap.
func (rt *Runtime) NewVM() *VM { return NewVM(rt) }

// Collect drives the GC to the end of the cycle currently in progress (or
// starts and finishes a fresh one from idle), for hosts and tests that
// want a deterministic collection point rather than waiting on incremental
// steps.
func (rt *Runtime) Collect() { rt.GC.runToCompletion(rt.gcStepBudget) }

// DebugDump writes a non-authoritative snapshot of heap state: GC phase
// and list lengths, string pool live count, type registry size.
// Nothing reads this back; it exists purely for humans debugging a
// Runtime.
func (rt *Runtime) DebugDump(w io.Writer) {
	fmt.Fprintf(w, "runtime %s\n", rt.ID)
	fmt.Fprintf(w, "  gc: phase=%s cycles=%d live=%d freed=%d\n",
		rt.GC.phase, rt.GC.stats.Cycles, rt.GC.stats.ObjectsLive, rt.GC.stats.ObjectsFreed)
	fmt.Fprintf(w, "  gc lists: normally_white=%d pinned=%d grey=%d to_splice=%d dead=%d\n",
		rt.GC.normallyWhite.length(), rt.GC.pinnedList.length(), rt.GC.grey.length(),
		rt.GC.toSplice.length(), rt.GC.dead.length())
	fmt.Fprintf(w, "  strings: live=%d\n", rt.Strings.liveCount())
	fmt.Fprintf(w, "  types: %d interned\n", len(rt.Types.descs))
}
