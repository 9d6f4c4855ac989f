package userfs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	return New(zap.NewNop())
}

func TestOpen_NoFileWithoutCreate(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.Open("missing", ReadOnly)
	require.Error(t, err)
	require.Equal(t, ErrNoFile, fs.Errno())
}

func TestOpen_CreateThenWriteRead(t *testing.T) {
	fs := newTestFS(t)
	fd, err := fs.Open("a.txt", Create|ReadWrite)
	require.NoError(t, err)
	require.Equal(t, 0, fd)

	n, err := fs.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	rfd, err := fs.Open("a.txt", ReadOnly)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err = fs.Read(rfd, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestWrite_NotPermittedReadOnly(t *testing.T) {
	fs := newTestFS(t)
	fd, err := fs.Open("a.txt", Create)
	require.NoError(t, err)
	fs.Close(fd)

	rfd, err := fs.Open("a.txt", ReadOnly)
	require.NoError(t, err)

	_, err = fs.Write(rfd, []byte("x"))
	require.Error(t, err)
	require.Equal(t, ErrNoPermission, fs.Errno())
}

func TestWrite_SpansMultipleBlocks(t *testing.T) {
	fs := newTestFS(t)
	fd, err := fs.Open("big.bin", Create|ReadWrite)
	require.NoError(t, err)

	data := make([]byte, BlockSize*2+10)
	for i := range data {
		data[i] = byte(i % 251)
	}
	n, err := fs.Write(fd, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	snap := fs.Snapshot()
	require.Equal(t, len(data), snap.Files[0].Bytes)
	require.Equal(t, 3, snap.Files[0].Blocks)
}

func TestDescriptorTable_SmallestFreeIndexReuse(t *testing.T) {
	fs := newTestFS(t)
	fd1, _ := fs.Open("a", Create)
	fd2, _ := fs.Open("b", Create)
	require.Equal(t, 0, fd1)
	require.Equal(t, 1, fd2)

	require.NoError(t, fs.Close(fd1))

	fd3, _ := fs.Open("c", Create)
	require.Equal(t, 0, fd3, "closed slot 0 should be reused before growing")
}

func TestDelete_TombstoneUntilLastClose(t *testing.T) {
	fs := newTestFS(t)
	fd, _ := fs.Open("a", Create)

	require.NoError(t, fs.Delete("a"))
	_, err := fs.Open("a", ReadOnly)
	require.Error(t, err, "deleted name must be invisible to new opens")

	require.NoError(t, fs.Close(fd))

	_, err = fs.Open("a", ReadOnly)
	require.Error(t, err, "file should be gone entirely after last close")
}

func TestResize_TruncatesAndExtends(t *testing.T) {
	fs := newTestFS(t)
	fd, _ := fs.Open("a", Create|ReadWrite)
	fs.Write(fd, make([]byte, BlockSize+100))

	require.NoError(t, fs.Resize(fd, 10))
	snap := fs.Snapshot()
	require.Equal(t, 10, snap.Files[0].Bytes)

	require.NoError(t, fs.Resize(fd, BlockSize+50))
	snap = fs.Snapshot()
	require.Equal(t, BlockSize+50, snap.Files[0].Bytes)
}

func TestWrite_RejectsOverMaxFileSize(t *testing.T) {
	fs := newTestFS(t)
	fd, _ := fs.Open("a", Create|ReadWrite)
	_, err := fs.Write(fd, make([]byte, MaxFileSize+1))
	require.Error(t, err)
	require.Equal(t, ErrNoMem, fs.Errno())
}
