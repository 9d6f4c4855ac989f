package shellexec

import "sync"

// registry is a dynamically-sized ordered sequence of child PIDs awaiting a
// reap, grounded on original_source/2/pid_list.h's struct process_registry:
// it grows by doubling at capacity and shrinks by halving once size drops
// below capacity/2, never below initCapacity slots.
//
// Unlike pid_list.h's release_process_registry — which only frees the
// backing array when it happens to find a zero PID while scanning from the
// front (a latent bug spec.md §9 calls out and asks not to be replicated) —
// Release here frees unconditionally whenever the registry holds a backing
// slice.
//
// A *Shell's registry is reachable from the driver's own reap sweep and from
// the control plane's read-only HTTP handlers (internal/control/handlers.go)
// running on their own goroutines, so every access is guarded by mu — the
// same reasoning that put a mutex on userfs.FS.
type registry struct {
	mu   sync.Mutex
	pids []int
}

const (
	registryInitCapacity = 10
	registryGrowFactor   = 2
)

func newRegistry() *registry {
	return &registry{pids: make([]int, 0, registryInitCapacity)}
}

// Register appends pid, growing the backing array by doubling if full.
func (r *registry) Register(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids = append(r.pids, pid)
	r.adjustCapacity()
}

// Size returns the number of tracked (not yet reaped) PIDs.
func (r *registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pids)
}

// Snapshot returns a defensive copy of the tracked PIDs in registration order.
func (r *registry) Snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.pids))
	copy(out, r.pids)
	return out
}

// Merge appends another registry's PIDs (or a raw PID slice handed over by a
// non-waiting pipeline, spec.md §4.1 step 5) into this one.
func (r *registry) Merge(pids []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids = append(r.pids, pids...)
	r.adjustCapacity()
}

// RemoveValue drops the first occurrence of pid, preserving relative order
// of the rest. Reports whether pid was found.
func (r *registry) RemoveValue(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pids {
		if p == pid {
			r.pids = append(r.pids[:i], r.pids[i+1:]...)
			r.adjustCapacity()
			return true
		}
	}
	return false
}

// Release frees the registry's backing storage. Safe to call on an empty or
// already-released registry.
func (r *registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids = nil
}

// adjustCapacity mirrors adjust_process_registry_capacity: grow by doubling
// when full, shrink by halving once usage drops under half capacity and
// above the init-size floor. Go slices don't expose "capacity" the way a
// malloc'd array does, so this operates on len(pids) against cap(pids) to
// preserve the same growth/shrink cadence the C version encodes explicitly.
func (r *registry) adjustCapacity() {
	size := len(r.pids)
	capNow := cap(r.pids)

	if size == capNow {
		grown := make([]int, size, capNow*registryGrowFactor)
		copy(grown, r.pids)
		r.pids = grown
		return
	}

	if size*registryGrowFactor < capNow && size > registryInitCapacity {
		target := capNow / registryGrowFactor
		if target < registryInitCapacity {
			target = registryInitCapacity
		}
		shrunk := make([]int, size, target)
		copy(shrunk, r.pids)
		r.pids = shrunk
	}
}
