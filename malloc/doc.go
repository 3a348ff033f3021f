// Package malloc supplies a general purpose memory allocator for
// memory managed outside the Go garbage collector, organised as three
// tiers of caches:
//
//  * ThreadCache, one per goroutine, holds free blocks per size class
//    and needs no locking.
//  * Central cache, shared by all thread caches of a heap, holds spans
//    sliced into blocks, one span list and one lock per size class.
//  * Page cache holds free spans bucketed by page count and the index
//    from page to span. Spans are split on demand and merged with free
//    neighbours on release. It is the only tier acquiring pages from
//    the page source, always 128 pages at a time.
//
// Requests up to 64KB are served by the thread cache, up to 512KB as
// a single block span from page cache, and larger requests are mapped
// directly from the page source.
//
// Memory handed out by this package is not scanned by the garbage
// collector: it must never hold the only reference to a Go object.
// Blocks are 8 byte aligned and are not initialized. Freeing a pointer
// not obtained from the same heap, or freeing a block twice, is
// undefined behaviour and is not detected.
package malloc
