package gaffa

import "github.com/fgenesis/gaffa/internal/rtlog"

// gcPhase is the state machine driving gc_step: an
// IDLE -> PREMARK -> MARK -> SPLICE -> IDLE cycle.
type gcPhase int

const (
	gcIdle gcPhase = iota
	gcPremark
	gcMark
	gcSplice
)

func (p gcPhase) String() string {
	switch p {
	case gcIdle:
		return "idle"
	case gcPremark:
		return "premark"
	case gcMark:
		return "mark"
	case gcSplice:
		return "splice"
	default:
		return "invalid-phase"
	}
}

// GCStats accumulates diagnostic counters surfaced through Runtime.DebugDump
// and rtlog, never consulted by collection logic itself.
type GCStats struct {
	Cycles       uint64
	ObjectsFreed uint64
	ObjectsLive  uint64
}

// GC is a tri-color incremental mark-and-sweep collector: no colors are
// stored as such; object placement across four intrusive lists (plus
// "dead", the free queue) stands in for color.
type GC struct {
	alloc allocator

	normallyWhite gcList
	pinnedList    gcList
	grey          gcList
	toSplice      gcList
	dead          gcList

	phase gcPhase

	strings *StringPool // root pool, consulted by mark for STRING children
	vms     []*VM       // registered VM threads; their value stacks are roots too

	logger rtlog.Logger
	stats  GCStats
}

// newGC constructs a GC bound to the given allocator. strings is wired in
// after construction (StringPool itself needs a GC reference first) via
// bindStrings, a two-phase gcinit()-then-bootstrap construction order.
func newGC(alloc allocator, logger rtlog.Logger) *GC {
	return &GC{alloc: alloc, logger: logger}
}

func (gc *GC) bindStrings(sp *StringPool) { gc.strings = sp }

// registerVM adds vm's value stack to the root set scanned at the start of
// every collection cycle: live VM frames are roots, same as anything
// pinned.
func (gc *GC) registerVM(vm *VM) { gc.vms = append(gc.vms, vm) }

// newObject allocates and registers a heap object header. Every concrete
// constructor (newTable, newDArray, ...) calls this once, immediately
// after building its Go struct, before returning it to the caller.
func newObject(gc *GC, owner gcObject, kind Kind, size uint32) *gcHeader {
	h := owner.header()
	initHeader(h, owner, kind, size)
	gc.normallyWhite.pushFront(h)
	gc.stats.ObjectsLive++
	return h
}

// makeGrey enqueues an object for scanning. It is a no-op if the object's
// GREY bit is already set; it also clears BLACK, since a child discovered
// again after having been blackened already must be rescanned (this is
// what the sticky-grey write barrier relies on).
func (gc *GC) makeGrey(h *gcHeader) {
	if h == nil || h.hasFlag(gcGrey) {
		return
	}
	h.addFlag(gcGrey)
	h.clearFlag(gcBlack)
	gc.grey.pushFront(h)
}

// pin adds obj to the permanent root set (the "pinned" list). Pinned
// objects are re-greyed at the start of every cycle's PREMARK step and are
// returned to pinned (rather than normally_white) at SPLICE. Every caller
// in this codebase pins an object immediately after constructing it, while
// it is still sitting in normally_white (newObject's only destination);
// remove splices it out of there before it's threaded onto pinnedList, so
// the two lists never fight over the same header's next/prev fields.
func (gc *GC) pin(obj gcObject) {
	h := obj.header()
	if h.hasFlag(gcPinned) {
		return
	}
	gc.normallyWhite.remove(h)
	h.addFlag(gcPinned)
	gc.pinnedList.pushFront(h)
}

// gcStep performs up to budget abstract work units of collection,
// advancing the phase state machine as far as the budget allows. Work
// units: 1 per marked pointer, ~10 per freed long string/dead object.
func (gc *GC) gcStep(budget int) {
	for budget > 0 {
		if !gc.dead.isEmpty() {
			spent := gc.sweepDeadStep(budget)
			budget -= spent
			if spent == 0 {
				budget--
			}
			continue
		}
		switch gc.phase {
		case gcIdle:
			gc.stepPremark()
			budget--
		case gcPremark:
			gc.stepPremark()
			budget--
		case gcMark:
			spent := gc.stepMark(budget)
			budget -= spent
			if spent == 0 {
				gc.phase = gcSplice
			}
		case gcSplice:
			spent := gc.stepSplice(budget)
			budget -= spent
			if spent == 0 {
				gc.finishCycle()
				return
			}
		}
	}
}

// stepPremark moves normally_white into to_splice and seeds grey from the
// pinned roots, then advances to MARK. This always runs as a single,
// atomic step.
func (gc *GC) stepPremark() {
	gc.toSplice.head = gc.normallyWhite.takeAll()
	gc.phase = gcMark
	for h := gc.pinnedList.head; h != nil; h = h.next {
		gc.makeGrey(h)
	}
	// Conservative stack scan: shade every slot rather than tracking exact
	// per-frame liveness. Shading a stale/unused slot is harmless (shade
	// is a no-op on non-heap, non-string Values); under-scanning a live
	// one would not be.
	for _, vm := range gc.vms {
		for i := range vm.Stack {
			gc.shade(vm.Stack[i])
		}
	}
	gc.logger.Debugf("gc: premark done, entering mark")
}

// stepMark drains up to budget objects from grey, marking each BLACK and
// enqueuing its children. Returns the number of work units actually spent;
// 0 means grey is empty and MARK is complete.
func (gc *GC) stepMark(budget int) int {
	spent := 0
	for spent < budget {
		h := gc.grey.popFront()
		if h == nil {
			break
		}
		h.clearFlag(gcGrey)
		h.addFlag(gcBlack)
		h.owner.scanChildren(gc)
		spent++
	}
	return spent
}

// stepSplice walks to_splice: BLACK objects survive (returning to pinned
// or normally_white with BLACK/GREY cleared); everything else is dead.
// Once to_splice is drained, the same phase also drives the StringPool's
// own sweep cursor to completion; a string only stays marked if some
// scanned heap object's scanChildren shaded it during MARK (see
// barrier.go's shade), so this is where an otherwise-unreferenced interned
// string actually gets dropped.
func (gc *GC) stepSplice(budget int) int {
	spent := 0
	for spent < budget {
		h := gc.toSplice.popFront()
		if h == nil {
			break
		}
		spent++
		if h.hasFlag(gcBlack) {
			h.clearFlag(gcBlack)
			h.clearFlag(gcGrey)
			if h.hasFlag(gcPinned) {
				gc.pinnedList.pushFront(h)
			} else {
				gc.normallyWhite.pushFront(h)
			}
		} else {
			gc.dead.pushFront(h)
		}
	}

	heapDone := gc.toSplice.isEmpty()
	stringsDone := true
	if gc.strings != nil {
		remaining := budget - spent
		if remaining <= 0 {
			stringsDone = gc.strings.sweepCursor >= len(gc.strings.blocks)
		} else {
			before := gc.strings.sweepCursor
			stringsDone = gc.strings.sweepStep(remaining)
			switch {
			case gc.strings.sweepCursor > before:
				spent += gc.strings.sweepCursor - before
			case !stringsDone:
				spent++ // guarantee forward progress even on an all-skip slice
			}
		}
	}

	if heapDone && stringsDone {
		return 0
	}
	if spent == 0 {
		spent = 1
	}
	return spent
}

// sweepDeadStep processes objects from the dead list first, as gc_step's
// budget loop requires. A FINALIZER object is resurrected once (moved back
// to normally_white, finalizer cleared, callback invoked); everything else
// is handed back to the allocator. Returns work units spent.
func (gc *GC) sweepDeadStep(budget int) int {
	spent := 0
	for spent < budget {
		h := gc.dead.popFront()
		if h == nil {
			break
		}
		if h.hasFlag(gcFinalizer) {
			h.clearFlag(gcFinalizer)
			gc.normallyWhite.pushFront(h)
			if f, ok := h.owner.(finalizable); ok {
				f.finalize()
			}
			spent++
			continue
		}
		gc.stats.ObjectsFreed++
		gc.stats.ObjectsLive--
		if f, ok := h.owner.(freeable); ok {
			f.freeExternal(gc.alloc)
		}
		spent += 10
	}
	return spent
}

func (gc *GC) finishCycle() {
	gc.phase = gcIdle
	gc.stats.Cycles++
	if gc.strings != nil {
		gc.strings.sweepFinish()
	}
	gc.logger.Debugf("gc: cycle %d complete, live=%d freed(total)=%d",
		gc.stats.Cycles, gc.stats.ObjectsLive, gc.stats.ObjectsFreed)
}

// runToCompletion drives gc_step repeatedly, budget work units per step,
// until a full cycle completes, then releases everything that cycle moved
// to the dead list. Used by tests that want a deterministic collection
// point and by Runtime's explicit Collect().
func (gc *GC) runToCompletion(budget int) {
	start := gc.stats.Cycles
	for gc.stats.Cycles == start {
		gc.gcStep(budget)
	}
	for !gc.dead.isEmpty() {
		gc.sweepDeadStep(budget)
	}
}

// finalizable is implemented by heap objects that registered a finalizer.
type finalizable interface {
	finalize()
}

// freeable is implemented by heap objects holding storage beyond their Go
// struct (DArray's element storage, Table's key and backref arrays); its
// freeExternal drops those references when the object dies. That storage
// is Go-heap memory, so the allocator passed in is not called.
type freeable interface {
	freeExternal(alloc allocator)
}
