package userfs

// file is a named, in-memory object: a block chain plus an open-descriptor
// reference count and a tombstone flag, grounded on userfs.c's struct file.
// Unlike the C original's hand-rolled doubly-linked file_list (walked with a
// strncmp-prefix-then-NUL-check that is really just an exact-name match),
// the registry that owns files indexes them in a map — same semantics,
// without the pointer-list bookkeeping a Go map already gives for free.
type file struct {
	name      string
	blocks    *block
	lastBlock *block
	refs      int
	removed   bool
}

func newFile(name string) *file {
	f := &file{name: name}
	f.expand()
	return f
}

// expand appends one fresh block to the end of the chain, mirroring
// expand_storage_unit.
func (f *file) expand() {
	b := newBlock()
	if f.blocks == nil {
		f.blocks = b
		f.lastBlock = b
		return
	}
	b.prev = f.lastBlock
	f.lastBlock.next = b
	f.lastBlock = b
}

// truncateAfter drops every block after keep, matching release_memory_chain
// applied to current_block->next inside ufs_resize's shrink path.
func (f *file) truncateAfter(keep *block) {
	if keep == nil {
		f.blocks = nil
		f.lastBlock = nil
		return
	}
	keep.next = nil
	f.lastBlock = keep
}
