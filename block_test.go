package blocky

import (
	"context"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/blocky/internal/testutil"
)

func openFixture(t *testing.T, path string, opts ...Option) *Block {
	t.Helper()
	b, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestOpenReadsEntries(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	assert.Equal(t, 2, b.Len())

	collect := func() []uint64 {
		var ids []uint64
		for fi := range b.Entries() {
			ids = append(ids, fi.ID)
		}
		return ids
	}
	assert.Equal(t, []uint64{1, 2}, collect())
	// Restartable.
	assert.Equal(t, []uint64{1, 2}, collect())

	for fi := range b.Entries() {
		assert.Equal(t, uint64(1), fi.ID)
		break
	}
}

func TestFileAtOutOfRange(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	for _, i := range []int{-1, 2, 100} {
		_, _, err := b.FileAt(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", i)
		_, err = b.Entry(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", i)
	}
}

func TestFileAtIsBoundedView(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	_, content, err := b.FileAt(0)
	require.NoError(t, err)
	assert.Len(t, content, 5)
	assert.Equal(t, 5, cap(content))
}

func TestFileByID(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	hdr, content, err := b.FileByID(2)
	require.NoError(t, err)
	assert.Equal(t, "/2.bin", hdr.Location)
	assert.Equal(t, "World", string(content))

	_, _, err = b.FileByID(3)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFileByLocation(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	hdr, content, err := b.FileByLocation("/1.bin")
	require.NoError(t, err)
	assert.Equal(t, "/1.bin", hdr.Location)
	assert.Equal(t, "Hello", string(content))

	_, _, err = b.FileByLocation("/3.bin")
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, _, err = b.FileByLocation("1.bin")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFileByLocationConfirmsSubHeader(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	// Point entry 1's location hash at "/1.bin" so both entries are candidates.
	h := LocationHash("/1.bin")
	testutil.PatchFile(t, path, 6+32+16, h[:])
	// Then make entry 0's stored location disagree with its hash.
	testutil.PatchFile(t, path, 1024+18, []byte("/x"))

	b := openFixture(t, path)
	hdr, content, err := b.FileByLocation("/1.bin")
	require.ErrorIs(t, err, ErrFileNotFound)
	assert.Empty(t, hdr.Location)
	assert.Nil(t, content)
}

func TestFileByLocationSkipsCorruptedCandidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reqs := helloWorldRequests(t, dir)
	reqs[0].Location = "/same"
	reqs[1].Location = "/same"
	path := filepath.Join(dir, "same.blk")
	b, err := Build(context.Background(), path, reqs)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	// First byte of member 0's location.
	testutil.PatchFile(t, path, 1024+18, []byte{0xff})

	b = openFixture(t, path)
	_, _, err = b.FileAt(0)
	require.ErrorIs(t, err, ErrHeaderCorrupted)

	hdr, content, err := b.FileByLocation("/same")
	require.NoError(t, err)
	assert.Equal(t, "/same", hdr.Location)
	assert.Equal(t, "World", string(content))
}

func TestFileByLocationReportsCorruptionWhenNothingMatches(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	testutil.PatchFile(t, path, 1024+18, []byte{0xff})

	b := openFixture(t, path)
	_, _, err := b.FileByLocation("/1.bin")
	assert.ErrorIs(t, err, ErrHeaderCorrupted)

	_, content, err := b.FileByLocation("/2.bin")
	require.NoError(t, err)
	assert.Equal(t, "World", string(content))
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.blk"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenCorrupted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(t *testing.T, path string)
		wantErr []error
	}{
		{
			name: "empty file",
			mutate: func(t *testing.T, path string) {
				require.NoError(t, os.Truncate(path, 0))
			},
			wantErr: []error{ErrBlockCorrupted},
		},
		{
			name: "short prefix",
			mutate: func(t *testing.T, path string) {
				require.NoError(t, os.Truncate(path, 4))
			},
			wantErr: []error{ErrBlockCorrupted},
		},
		{
			name: "truncated entries",
			mutate: func(t *testing.T, path string) {
				require.NoError(t, os.Truncate(path, 6+32+10))
			},
			wantErr: []error{ErrBlockCorrupted},
		},
		{
			name: "entry count beyond file",
			mutate: func(t *testing.T, path string) {
				testutil.PatchFile(t, path, 2, binary.LittleEndian.AppendUint32(nil, 1_000_000))
			},
			wantErr: []error{ErrBlockCorrupted},
		},
		{
			name: "unsupported version",
			mutate: func(t *testing.T, path string) {
				testutil.PatchFile(t, path, 0, []byte{2, 0})
			},
			wantErr: []error{ErrBlockCorrupted, ErrUnsupportedVersion},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := buildFixture(t)
			tt.mutate(t, path)

			b, err := Open(path)
			require.Error(t, err)
			assert.Nil(t, b)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrBlockCorrupted)
}

func TestOpenZeroEntries(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, t.TempDir(), "empty.blk", []byte{1, 0, 0, 0, 0, 0})
	b := openFixture(t, path)
	assert.Zero(t, b.Len())
	require.NoError(t, b.VerifyAll(context.Background()))
}

func TestFileAtCorruptedSubHeader(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	// First byte of member 0's location.
	testutil.PatchFile(t, path, 1024+18, []byte{0xff})

	b := openFixture(t, path)
	_, _, err := b.FileAt(0)
	assert.ErrorIs(t, err, ErrHeaderCorrupted)

	_, content, err := b.FileAt(1)
	require.NoError(t, err)
	assert.Equal(t, "World", string(content))
}

func TestFileAtOffsetBeyondBlock(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	testutil.PatchFile(t, path, 6+12, binary.LittleEndian.AppendUint32(nil, 1<<20))

	b := openFixture(t, path)
	_, _, err := b.FileAt(0)
	assert.ErrorIs(t, err, ErrHeaderCorrupted)
}

func TestFileAtSizeBeyondBlock(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	// Entry 1's size field.
	testutil.PatchFile(t, path, 6+32+8, binary.LittleEndian.AppendUint32(nil, 4096))

	b := openFixture(t, path)
	_, _, err := b.FileAt(1)
	assert.ErrorIs(t, err, ErrBlockCorrupted)

	_, content, err := b.FileAt(0)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(content))
}

func TestVerifyDetectsContentCorruption(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	testutil.PatchFile(t, path, 2048+24, []byte("w"))

	b := openFixture(t, path, WithVerifyConcurrency(1))
	require.NoError(t, b.Verify(0))
	assert.ErrorIs(t, b.Verify(1), ErrHashMismatch)
	assert.ErrorIs(t, b.VerifyAll(context.Background()), ErrHashMismatch)
}

func TestVerifyAllCanceled(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.VerifyAll(ctx), context.Canceled)
}

func TestConcurrentReads(t *testing.T) {
	t.Parallel()

	b := openFixture(t, buildFixture(t))
	want := []string{"Hello", "World"}

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i := g % 2
			_, content, err := b.FileAt(i)
			assert.NoError(t, err)
			assert.Equal(t, want[i], string(content))
		}()
	}
	wg.Wait()
}

func TestClose(t *testing.T) {
	t.Parallel()

	b, err := Open(buildFixture(t))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, _, err = b.FileAt(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = b.FileByID(1)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = b.FileByLocation("/1.bin")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.VerifyAll(context.Background()), ErrClosed)
	_, err = b.Digest()
	assert.ErrorIs(t, err, ErrClosed)

	// Header metadata stays available.
	assert.Equal(t, 2, b.Len())
}

func TestDigest(t *testing.T) {
	t.Parallel()

	path := buildFixture(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	b := openFixture(t, path)
	dgst, err := b.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(data), dgst)
	assert.Equal(t, digest.SHA256, dgst.Algorithm())

	again, err := b.Digest()
	require.NoError(t, err)
	assert.Equal(t, dgst, again)
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := os.ReadFile(buildFixture(t))
	require.NoError(t, err)
	b, err := os.ReadFile(buildFixture(t))
	require.NoError(t, err)
	assert.True(t, slices.Equal(a, b))
}
