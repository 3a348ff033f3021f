package api

import "unsafe"

// Mallocer interface for custom memory management. Instances are bound
// to a single execution context and are not thread safe, though any
// number of them can share the same underlying heap.
type Mallocer interface {
	// Alloc allocate a block of `n` bytes. Allocated memory is always
	// 64-bit aligned and is not initialized. Returns ErrorOutofMemory,
	// possibly wrapped, when the operating system cannot supply pages.
	Alloc(n int64) (unsafe.Pointer, error)

	// Free block back to allocator. Freeing a pointer that was not
	// obtained from the same heap, or freeing it twice, is undefined.
	Free(ptr unsafe.Pointer)

	// Chunklen return the number of bytes usable by application in the
	// block pointed to by `ptr`.
	Chunklen(ptr unsafe.Pointer) int64

	// Release all cached resources held by this instance.
	Release()
}

// Pagesource interface to the operating system's virtual memory. All
// addresses handled by a Pagesource are page aligned.
type Pagesource interface {
	// Acquirepages reserve `npages` contiguous pages and return a
	// pointer to the first page.
	Acquirepages(npages int64) (base unsafe.Pointer, err error)

	// Releasepages give back pages acquired by Acquirepages, starting
	// at `base`.
	Releasepages(base unsafe.Pointer) error

	// Chunksize return the size, in bytes, of pages acquired at `base`,
	// 0 if `base` is not held by this source.
	Chunksize(base unsafe.Pointer) int64

	// Acquired return the number of bytes currently held from OS.
	Acquired() int64

	// Release give back every page held by this source.
	Release()
}
