package userfs

// OpenFlag selects a descriptor's access mode, matching userfs.c's
// enum open_flags. Create only decides whether Open may create a missing
// file; isReadable/isWritable ignore the Create bit and look at the access
// mode alone: no mode bit means readable and writable, ReadOnly and
// WriteOnly are exclusive, ReadWrite allows both.
type OpenFlag int

const (
	flagDefault  OpenFlag = 0
	ReadOnly     OpenFlag = 1
	WriteOnly    OpenFlag = 2
	ReadWrite    OpenFlag = 3
	Create       OpenFlag = 4
)

type fileDescriptor struct {
	file      *file
	segment   int
	flags     OpenFlag
	bytePos   int
}

func isReadable(d *fileDescriptor) bool {
	if d == nil {
		return false
	}
	switch d.flags &^ Create {
	case flagDefault, ReadOnly, ReadWrite:
		return true
	default:
		return false
	}
}

func isWritable(d *fileDescriptor) bool {
	if d == nil {
		return false
	}
	switch d.flags &^ Create {
	case flagDefault, WriteOnly, ReadWrite:
		return true
	default:
		return false
	}
}

// descriptorInitCapacity matches userfs.c's DESCRIPTOR_POOL_START_SIZE.
const descriptorInitCapacity = 10
const descriptorGrowFactor = 2

// descriptorTable is the compact, smallest-free-index file descriptor pool,
// grounded on userfs.c's file_descriptors/file_descriptor_count/
// file_descriptor_capacity trio and restyled after
// internal/infrastructure/objectstore/objectstore.go's slice-backed storage
// — though objectstore never recycles a freed id, so this is adapted rather
// than copied: slots holds exactly len(slots) == capacity pointer-sized
// entries, and count is the length of the live contiguous prefix (the
// highest ever-assigned index in current use, plus one).
type descriptorTable struct {
	slots []*fileDescriptor
	count int
}

func newDescriptorTable() *descriptorTable {
	return &descriptorTable{slots: make([]*fileDescriptor, descriptorInitCapacity)}
}

// allocate returns the smallest index not currently in use, growing the
// table first if the live prefix has filled its capacity. It does not mark
// the slot occupied — the caller does that via assign once the descriptor
// is fully constructed, matching ufs_open's two-step smallest_fd()/assign.
func (t *descriptorTable) allocate() int {
	for i := 0; i < t.count; i++ {
		if t.slots[i] == nil {
			return i
		}
	}
	if t.count == len(t.slots) {
		t.adjustCapacity()
	}
	return t.count
}

func (t *descriptorTable) assign(idx int, d *fileDescriptor) {
	t.slots[idx] = d
	if idx == t.count {
		t.count++
	}
}

func (t *descriptorTable) get(idx int) *fileDescriptor {
	if idx < 0 || idx >= t.count {
		return nil
	}
	return t.slots[idx]
}

// release frees slot idx and, if it was the last slot of the live prefix,
// trims trailing nils the way ufs_close decrements file_descriptor_count
// back past freed tail entries before adjusting capacity.
func (t *descriptorTable) release(idx int) {
	t.slots[idx] = nil
	if idx == t.count-1 {
		for t.count > 0 && t.slots[t.count-1] == nil {
			t.count--
		}
	}
	t.adjustCapacity()
}

func (t *descriptorTable) adjustCapacity() {
	capNow := len(t.slots)
	switch {
	case t.count >= capNow:
		grown := make([]*fileDescriptor, capNow*descriptorGrowFactor)
		copy(grown, t.slots)
		t.slots = grown
	case t.count < capNow/descriptorGrowFactor && capNow > descriptorInitCapacity:
		target := capNow / descriptorGrowFactor
		if target < descriptorInitCapacity {
			target = descriptorInitCapacity
		}
		shrunk := make([]*fileDescriptor, target)
		copy(shrunk, t.slots)
		t.slots = shrunk
	}
}

// forEach walks the live prefix, invoking fn for every assigned descriptor.
// Used by resize to fix up sibling descriptors on the same file (ufs_resize
// walks file_descriptors the same way) and by the control plane's read-only
// stats.
func (t *descriptorTable) forEach(fn func(idx int, d *fileDescriptor)) {
	for i := 0; i < t.count; i++ {
		if t.slots[i] != nil {
			fn(i, t.slots[i])
		}
	}
}

func (t *descriptorTable) capacity() int { return len(t.slots) }
func (t *descriptorTable) liveCount() int {
	n := 0
	t.forEach(func(int, *fileDescriptor) { n++ })
	return n
}
