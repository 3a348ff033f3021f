package malloc

import "fmt"
import "unsafe"

// ThreadCache is the per execution context front of a heap, holding
// one free-list per size class. It is not thread safe: every goroutine
// that allocates must own its ThreadCache, obtained from
// Heap.Threadcache(), and call Release() when done with it.
//
// ThreadCache implements api.Mallocer.
type ThreadCache struct {
	heap  *Heap
	lists [Numclasses]freelist
}

// allocate a small block of `n` bytes, refilling from central cache
// when the size class is exhausted.
func (tc *ThreadCache) allocate(n int64) (unsafe.Pointer, error) {
	index := Sizeindex(n)
	list := &tc.lists[index]
	for list.empty() {
		if err := tc.fetchfromcentral(Roundup(n)); err != nil {
			return nil, err
		}
	}
	return list.pop(), nil
}

// deallocate a small block of class `size`. When the class list grows
// to a full batch, the batch goes back to central cache.
func (tc *ThreadCache) deallocate(block unsafe.Pointer, size int64) {
	list := &tc.lists[Sizeindex(size)]
	list.push(block)
	size = Roundup(size)
	if batch := Numfetchobject(size); list.size() >= batch {
		tc.releasetocentral(list, batch, size)
	}
}

// fetchfromcentral pull one batch of `size` byte objects. Central cache
// may return less than a batch and no retry is made here.
func (tc *ThreadCache) fetchfromcentral(size int64) error {
	batch := Numfetchobject(size)
	start, end, n, err := tc.heap.central.fetchrange(batch, size)
	if err != nil {
		return fmt.Errorf("threadcache fetch %v x %v: %w", batch, size, err)
	}
	tc.lists[Sizeindex(size)].pushrange(start, end, n)
	return nil
}

func (tc *ThreadCache) releasetocentral(list *freelist, n, size int64) {
	start, _, n := list.poprange(n)
	if n > 0 {
		tc.heap.central.releaselisttospans(start, n, size)
	}
}

//---- api.Mallocer{} interface

// Alloc implement api.Mallocer{} interface.
func (tc *ThreadCache) Alloc(n int64) (unsafe.Pointer, error) {
	return tc.heap.Alloc(tc, n)
}

// Free implement api.Mallocer{} interface.
func (tc *ThreadCache) Free(ptr unsafe.Pointer) {
	tc.heap.Free(tc, ptr)
}

// Chunklen implement api.Mallocer{} interface.
func (tc *ThreadCache) Chunklen(ptr unsafe.Pointer) int64 {
	return tc.heap.Chunklen(ptr)
}

// Release implement api.Mallocer{} interface. Every cached block goes
// back to central cache, the ThreadCache can still be used afterwards.
func (tc *ThreadCache) Release() {
	for index := range tc.lists {
		list := &tc.lists[index]
		if n := list.size(); n > 0 {
			tc.releasetocentral(list, n, Classsize(index))
		}
	}
}

// Cached return the number of free blocks held by this cache.
func (tc *ThreadCache) Cached() (blocks, bytes int64) {
	for index := range tc.lists {
		n := tc.lists[index].size()
		blocks, bytes = blocks+n, bytes+n*Classsize(index)
	}
	return blocks, bytes
}
