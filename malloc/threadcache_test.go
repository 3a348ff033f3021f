package malloc

import "testing"
import "unsafe"

import "github.com/bnclabs/gomalloc/api"
import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func newtestheap(npages int64) (*Heap, *arenasource) {
	src := newarenasource(npages)
	return NewHeapWith(src), src
}

func TestThreadcacheRefill(t *testing.T) {
	heap, src := newtestheap(4 * Maxpages)
	defer src.Release()
	tc := heap.Threadcache()

	block, err := tc.allocate(10)
	require.NoError(t, err)
	assert.NotNil(t, block)
	list := &tc.lists[Sizeindex(10)]
	assert.Equal(t, Numfetchobject(16)-1, list.size())

	// served from the local list, no further central fetch.
	for i := int64(1); i < Numfetchobject(16); i++ {
		_, err := tc.allocate(16)
		require.NoError(t, err)
	}
	assert.True(t, list.empty())
	assert.Equal(t, int64(1), heap.central.lists[Sizeindex(16)].length())

	_, err = tc.allocate(16)
	require.NoError(t, err)
	assert.Equal(t, int64(2), heap.central.lists[Sizeindex(16)].length())
}

func TestThreadcacheReleaseThreshold(t *testing.T) {
	heap, src := newtestheap(4 * Maxpages)
	defer src.Release()
	tc := heap.Threadcache()

	size := int64(1024)
	batch := Numfetchobject(size)
	blocks := make([]unsafe.Pointer, 0, 3*batch)
	for i := int64(0); i < 3*batch; i++ {
		block, err := tc.allocate(size)
		require.NoError(t, err)
		blocks = append(blocks, block)
	}
	list := &tc.lists[Sizeindex(size)]
	for _, block := range blocks {
		tc.deallocate(block, size)
		if list.size() >= batch {
			t.Fatalf("threadcache holds %v blocks, batch %v", list.size(), batch)
		}
	}

	tc.Release()
	blocks2, bytes := tc.Cached()
	assert.Equal(t, int64(0), blocks2)
	assert.Equal(t, int64(0), bytes)
	info := heap.Info()
	assert.Equal(t, info.Held, info.Free)
	require.NoError(t, heap.pages.validate())
}

func TestThreadcacheCached(t *testing.T) {
	heap, src := newtestheap(4 * Maxpages)
	defer src.Release()
	tc := heap.Threadcache()

	_, err := tc.allocate(100)
	require.NoError(t, err)
	blocks, bytes := tc.Cached()
	size := Roundup(100)
	assert.Equal(t, Numfetchobject(size)-1, blocks)
	assert.Equal(t, blocks*size, bytes)
}

func TestThreadcacheOutofmemory(t *testing.T) {
	heap, src := newtestheap(Maxpages - 1)
	defer src.Release()
	tc := heap.Threadcache()

	_, err := tc.allocate(16)
	assert.ErrorIs(t, err, ErrorOutofMemory)
	assert.True(t, tc.lists[Sizeindex(16)].empty())
}

func TestThreadcacheMallocer(t *testing.T) {
	heap, src := newtestheap(Maxpages)
	defer src.Release()

	var mallocer api.Mallocer = heap.Threadcache()
	ptr, err := mallocer.Alloc(24)
	require.NoError(t, err)
	assert.Equal(t, int64(24), mallocer.Chunklen(ptr))
	mallocer.Free(ptr)
	mallocer.Release()
}
