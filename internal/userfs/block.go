package userfs

// BlockSize is the fixed size of one storage block, matching
// original_source/3/userfs.c's BLOCK_SIZE.
const BlockSize = 4096

// MaxFileSize bounds a single file's total size, matching userfs.c's
// MAX_FILE_SIZE (100 MiB).
const MaxFileSize = 1024 * 1024 * 100

// block is one node of a file's doubly-linked block chain, grounded on
// userfs.c's struct block. occupied tracks how many of BlockSize bytes hold
// real data; the rest of data is implicitly zero, same as a calloc'd block.
type block struct {
	data     [BlockSize]byte
	occupied int
	next     *block
	prev     *block
}

func newBlock() *block {
	return &block{}
}
