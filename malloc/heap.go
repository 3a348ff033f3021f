package malloc

import "fmt"
import "sync"
import "unsafe"
import "strings"
import "sync/atomic"

import "github.com/bnclabs/gomalloc/api"
import s "github.com/bnclabs/gosettings"

// Heap is the process wide part of the allocator, central cache and
// page cache over one page source. Allocation and free go through a
// ThreadCache handle, one per goroutine:
//
//	heap := malloc.NewHeap(nil)
//	tc := heap.Threadcache()
//	ptr, err := tc.Alloc(100)
//	...
//	tc.Free(ptr)
//	tc.Release()
type Heap struct {
	set      *spanset
	pages    *pagecache
	central  *centralcache
	source   api.Pagesource
	released int64
}

var defaultheap *Heap
var defaultonce sync.Once

// Defaultheap return the process wide heap, created with
// Defaultsettings() on first call. It is never released.
func Defaultheap() *Heap {
	defaultonce.Do(func() {
		defaultheap = NewHeap(nil)
	})
	return defaultheap
}

// NewHeap create a new heap, `setts` override Defaultsettings().
func NewHeap(setts s.Settings) *Heap {
	setts = Defaultsettings().Mixin(setts)
	if comps := setts.String("log.components"); comps != "" {
		LogComponents(strings.Split(comps, ",")...)
	}
	capacity := setts.Int64("capacity")
	if capacity <= 0 {
		panicerr("heap capacity %v must be positive", capacity)
	}
	source := NewPagesource(setts.String("pagesource"), capacity)
	heap := NewHeapWith(source)
	fmsg := "%v new heap on %q pages, capacity %v\n"
	infof(fmsg, logprefix, setts.String("pagesource"), capacity)
	return heap
}

// NewHeapWith create a new heap over a caller supplied page source.
func NewHeapWith(source api.Pagesource) *Heap {
	set := newspanset()
	pages := newpagecache(set, source)
	return &Heap{
		set:     set,
		pages:   pages,
		central: newcentralcache(set, pages),
		source:  source,
	}
}

// Threadcache create a new cache handle bound to this heap.
func (heap *Heap) Threadcache() *ThreadCache {
	return &ThreadCache{heap: heap}
}

// Alloc `n` bytes using `tc` for small blocks. Blocks up to Maxsmall
// come from thread cache, up to Maxlarge from page cache as a single
// object span, anything larger is mapped directly from page source.
// Zero byte requests are served as one byte.
func (heap *Heap) Alloc(tc *ThreadCache, n int64) (unsafe.Pointer, error) {
	if atomic.LoadInt64(&heap.released) > 0 {
		panicerr("heap released")
	} else if n < 0 {
		panicerr("Alloc size %v is negative", n)
	} else if n == 0 {
		n = 1
	}

	var block unsafe.Pointer
	var size int64
	var err error

	switch {
	case n <= Maxsmall:
		if tc == nil || tc.heap != heap {
			panicerr("Alloc(%v) needs a threadcache of this heap", n)
		}
		size = Roundup(n)
		block, err = tc.allocate(n)

	case n <= Maxlarge:
		npages := roundpages(n)
		var sp *span
		if sp, err = heap.pages.newspan(npages); err == nil {
			size = npages << Pageshift
			sp.objsize, sp.inuse = size, 1
			block = sp.base()
		}

	default:
		npages := roundpages(n)
		size = npages << Pageshift
		block, err = heap.pages.sysalloc(npages)
	}
	if err != nil {
		return nil, fmt.Errorf("Alloc(%v): %w", n, err)
	}
	initblock(block, size)
	return block, nil
}

// Free block pointed to by `ptr`, small blocks are cached in `tc`.
// Freeing nil is a no-op. Freeing a pointer that was not allocated
// from this heap, or freeing it twice, is undefined.
func (heap *Heap) Free(tc *ThreadCache, ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	sp := heap.pages.lookup(pageof(ptr))
	if sp == nil { // huge block, mapped directly from source.
		if err := heap.pages.sysfree(ptr); err != nil {
			errorf("%v Free(%p): %v\n", logprefix, ptr, err)
		}
		return
	}

	switch size := sp.objsize; {
	case size == 0:
		errorf("%v Free(%p) on a span that is not handed out\n", logprefix, ptr)

	case size <= Maxsmall:
		if tc == nil || tc.heap != heap {
			panicerr("Free(%p) needs a threadcache of this heap", ptr)
		}
		tc.deallocate(ptr, size)

	default:
		sp.clear()
		heap.pages.freespan(sp)
	}
}

// Chunklen return the usable size of the block pointed to by `ptr`,
// 0 if the block is not known to this heap.
func (heap *Heap) Chunklen(ptr unsafe.Pointer) int64 {
	if sp := heap.pages.lookup(pageof(ptr)); sp != nil {
		return sp.objsize
	}
	return heap.source.Chunksize(ptr)
}

// Release every page held by this heap back to OS. Outstanding blocks
// and thread caches become invalid and the heap cannot be used
// afterwards.
func (heap *Heap) Release() {
	if atomic.CompareAndSwapInt64(&heap.released, 0, 1) {
		heap.pages.release()
		infof("%v heap released\n", logprefix)
	}
}
