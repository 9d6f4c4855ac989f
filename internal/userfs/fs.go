package userfs

import (
	"sync"

	"go.uber.org/zap"
)

// FS is the process-global user filesystem: a registry of named files plus
// a compact descriptor table, replacing userfs.c's package-level globals
// (file_list, file_descriptors, ufs_error_code) with one explicit value per
// spec.md §9's "no implicit lazy initialization scattered across calls."
// Mutating calls are expected to be serialized by the caller (spec.md §5
// describes UFS as single-threaded by contract) but FS still guards its
// state with a mutex, because the control plane's read-only stats endpoint
// (SPEC_FULL §3.2) observes it from a second goroutine.
type FS struct {
	mu      sync.Mutex
	files   map[string]*file
	fds     *descriptorTable
	log     *zap.Logger
	lastErr ErrCode
}

// New returns an empty filesystem, descriptor table allocated lazily on
// first Open the way fd_setup() does in the C original.
func New(log *zap.Logger) *FS {
	return &FS{files: make(map[string]*file), log: log}
}

// Errno returns the error code set by the most recently completed
// operation, mirroring ufs_errno().
func (fs *FS) Errno() ErrCode {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastErr
}

func (fs *FS) fail(code ErrCode) error {
	fs.lastErr = code
	return wrapErr(code)
}

func (fs *FS) ok() error {
	fs.lastErr = ErrNone
	return nil
}

// Open finds or (with Create) creates a named file and returns a new
// descriptor index, grounded on ufs_open.
func (fs *FS) Open(name string, flags OpenFlag) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.fds == nil {
		fs.fds = newDescriptorTable()
	}

	f, exists := fs.files[name]
	if exists && f.removed {
		// A tombstoned name is invisible to new opens, same as find()'s
		// is_removed check.
		exists = false
		f = nil
	}
	if !exists {
		if flags&Create == 0 {
			return -1, fs.fail(ErrNoFile)
		}
		f = newFile(name)
		fs.files[name] = f
	}

	idx := fs.fds.allocate()
	fs.fds.assign(idx, &fileDescriptor{file: f, flags: flags})
	f.refs++

	fs.log.Debug("file opened", zap.String("name", name), zap.Int("fd", idx), zap.Int("refs", f.refs))
	return idx, fs.ok()
}

// Write copies len(buf) bytes to the descriptor's current position,
// overwriting any bytes already there and growing the block chain as
// needed, grounded on ufs_write.
func (fs *FS) Write(fd int, buf []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := fs.fds.get(fd)
	if d == nil {
		return -1, fs.fail(ErrNoFile)
	}
	if !isWritable(d) {
		return -1, fs.fail(ErrNoPermission)
	}

	f := d.file
	cur := f.blocks
	for seg := 0; seg < d.segment; seg++ {
		cur = cur.next
	}

	totalSoFar := cur.occupied + d.segment*BlockSize
	if totalSoFar+len(buf) > MaxFileSize {
		return -1, fs.fail(ErrNoMem)
	}

	written := 0
	for written < len(buf) {
		if d.bytePos == BlockSize {
			cur = cur.next
			if cur == nil {
				f.expand()
				cur = f.lastBlock
			}
			d.bytePos = 0
			d.segment++
		}

		space := BlockSize - d.bytePos
		if len(buf)-written < space {
			space = len(buf) - written
		}

		copy(cur.data[d.bytePos:], buf[written:written+space])
		d.bytePos += space
		written += space
		if d.bytePos > cur.occupied {
			cur.occupied = d.bytePos
		}
	}

	return written, fs.ok()
}

// Read copies up to len(buf) bytes from the descriptor's current position,
// grounded on ufs_read.
func (fs *FS) Read(fd int, buf []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := fs.fds.get(fd)
	if d == nil {
		return -1, fs.fail(ErrNoFile)
	}
	if !isReadable(d) {
		return -1, fs.fail(ErrNoPermission)
	}

	cur := d.file.blocks
	for seg := 0; seg < d.segment; seg++ {
		cur = cur.next
	}

	read := 0
	for read < len(buf) {
		if d.bytePos == BlockSize {
			cur = cur.next
			if cur == nil {
				return read, fs.ok()
			}
			d.bytePos = 0
			d.segment++
		}

		avail := cur.occupied - d.bytePos
		if len(buf)-read < avail {
			avail = len(buf) - read
		}
		if avail <= 0 {
			return read, fs.ok()
		}

		copy(buf[read:read+avail], cur.data[d.bytePos:d.bytePos+avail])
		d.bytePos += avail
		read += avail
	}

	return read, fs.ok()
}

// Close releases a descriptor, deleting its backing file if it was
// tombstoned and this was the last reference, grounded on ufs_close.
func (fs *FS) Close(fd int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := fs.fds.get(fd)
	if d == nil {
		return fs.fail(ErrNoFile)
	}

	f := d.file
	f.refs--
	if f.refs == 0 && f.removed && fs.files[f.name] == f {
		delete(fs.files, f.name)
	}

	fs.fds.release(fd)
	fs.log.Debug("file descriptor closed", zap.Int("fd", fd))
	return fs.ok()
}

// Delete tombstones a file by name: if no descriptor still references it,
// it is dropped immediately; otherwise it becomes invisible to Open but
// stays alive until the last Close, grounded on ufs_delete.
func (fs *FS) Delete(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.files[name]
	if !ok || f.removed {
		return fs.fail(ErrNoFile)
	}

	if f.refs == 0 {
		delete(fs.files, name)
	} else {
		f.removed = true
	}
	return fs.ok()
}

// Resize truncates or extends a file to exactly newSize bytes, fixing up
// every other descriptor open on the same file whose position now falls
// past the new end, grounded on ufs_resize (gated behind NEED_RESIZE in the
// original; implemented unconditionally here per SPEC_FULL §4).
func (fs *FS) Resize(fd int, newSize int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := fs.fds.get(fd)
	if d == nil {
		return fs.fail(ErrNoFile)
	}
	if !isWritable(d) {
		return fs.fail(ErrNoPermission)
	}
	if newSize > MaxFileSize {
		return fs.fail(ErrNoMem)
	}

	f := d.file
	cur := f.blocks
	total := 0
	segIdx := 0
	for cur != nil {
		total += cur.occupied
		if total >= newSize {
			break
		}
		cur = cur.next
		segIdx++
	}

	if cur != nil && (total > newSize || cur != f.lastBlock) {
		f.truncateAfter(cur)
		cur.occupied = newSize - segIdx*BlockSize
		fs.fds.forEach(func(_ int, other *fileDescriptor) {
			if other.file == f && other.segment >= segIdx {
				other.segment = segIdx
				if other.bytePos > cur.occupied {
					other.bytePos = cur.occupied
				}
			}
		})
	} else {
		if cur == nil {
			// The walk ran off the chain: grow from the current last block.
			cur = f.lastBlock
			segIdx--
		}
		total += BlockSize - cur.occupied
		cur.occupied = BlockSize
		for total < newSize {
			f.expand()
			f.lastBlock.occupied = BlockSize
			total += BlockSize
			segIdx++
		}
		f.lastBlock.occupied = newSize - segIdx*BlockSize
	}

	return fs.ok()
}

// Destroy releases every open descriptor and file, grounded on ufs_destroy.
// After Destroy the FS is empty but remains usable — New() is the only way
// to get a wholly fresh FS, matching the original's "call fd_setup() again
// on next ufs_open()" lazy-reinit behavior.
func (fs *FS) Destroy() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.files = make(map[string]*file)
	fs.fds = nil
	fs.lastErr = ErrNone
}

// Stats is a read-only snapshot for the control plane (SPEC_FULL §3.2).
type Stats struct {
	FileCount        int
	DescriptorCount  int
	DescriptorCap    int
	Files            []FileStat
}

// FileStat describes one live (non-tombstoned-and-invisible) file.
type FileStat struct {
	Name        string
	Blocks      int
	Bytes       int
	Refs        int
	Tombstoned  bool
}

// Snapshot builds a Stats value without mutating any filesystem state.
func (fs *FS) Snapshot() Stats {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	st := Stats{FileCount: len(fs.files)}
	if fs.fds != nil {
		st.DescriptorCount = fs.fds.liveCount()
		st.DescriptorCap = fs.fds.capacity()
	}
	for _, f := range fs.files {
		blocks, bytes := 0, 0
		for b := f.blocks; b != nil; b = b.next {
			blocks++
			bytes += b.occupied
		}
		st.Files = append(st.Files, FileStat{
			Name:       f.name,
			Blocks:     blocks,
			Bytes:      bytes,
			Refs:       f.refs,
			Tombstoned: f.removed,
		})
	}
	return st
}
