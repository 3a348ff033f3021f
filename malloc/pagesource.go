package malloc

import "fmt"
import "sync"
import "unsafe"

import "github.com/bnclabs/gomalloc/api"

// NewPagesource create a page source by name, "mmap" or "heap", that
// holds at most `capacity` bytes from OS at any time.
func NewPagesource(name string, capacity int64) api.Pagesource {
	switch name {
	case "mmap":
		return newmmapsource(capacity)
	case "heap":
		return newheapsource(capacity)
	}
	panicerr("unknown pagesource %q", name)
	return nil
}

// pagebook account for chunks held by a page source.
type pagebook struct {
	mu       sync.Mutex
	capacity int64
	acquired int64
	chunks   map[uintptr]int64 // base -> size in bytes
}

func (book *pagebook) init(capacity int64) {
	book.capacity = capacity
	book.chunks = make(map[uintptr]int64)
}

// reserve `size` bytes against capacity, must be called with lock.
func (book *pagebook) reserve(size int64) error {
	if book.acquired+size > book.capacity {
		fmsg := "acquire %v bytes, %v held, capacity %v: %w"
		err := api.ErrorOutofMemory
		return fmt.Errorf(fmsg, size, book.acquired, book.capacity, err)
	}
	book.acquired += size
	return nil
}

// Chunksize implement api.Pagesource{} interface.
func (book *pagebook) Chunksize(base unsafe.Pointer) int64 {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.chunks[uintptr(base)]
}

// Acquired implement api.Pagesource{} interface.
func (book *pagebook) Acquired() int64 {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.acquired
}

// heapsource supplies page aligned memory from Go heap. Chunks are
// plain byte slices, never scanned for pointers, and stay alive while
// referenced from `mems`. Every address handed out is derived from the
// slice itself, chunks are never adjacent and spans never cross them.
type heapsource struct {
	pagebook
	mems map[uintptr][]byte
}

func newheapsource(capacity int64) *heapsource {
	src := &heapsource{mems: make(map[uintptr][]byte)}
	src.init(capacity)
	return src
}

// Acquirepages implement api.Pagesource{} interface.
func (src *heapsource) Acquirepages(npages int64) (unsafe.Pointer, error) {
	size := npages << Pageshift
	src.mu.Lock()
	defer src.mu.Unlock()

	if err := src.reserve(size); err != nil {
		return nil, err
	}
	mem := make([]byte, size+Pagesize)
	addr := int64(uintptr(unsafe.Pointer(&mem[0])))
	base := unsafe.Pointer(&mem[roundalign(addr, Pagesize)-addr])
	src.mems[uintptr(base)], src.chunks[uintptr(base)] = mem, size
	return base, nil
}

// Releasepages implement api.Pagesource{} interface.
func (src *heapsource) Releasepages(base unsafe.Pointer) error {
	src.mu.Lock()
	defer src.mu.Unlock()

	key := uintptr(base)
	size, ok := src.chunks[key]
	if !ok {
		return fmt.Errorf("release %p: %w", base, api.ErrorUnknownPointer)
	}
	delete(src.chunks, key)
	delete(src.mems, key)
	src.acquired -= size
	return nil
}

// Release implement api.Pagesource{} interface.
func (src *heapsource) Release() {
	src.mu.Lock()
	defer src.mu.Unlock()

	src.mems = make(map[uintptr][]byte)
	src.chunks = make(map[uintptr]int64)
	src.acquired = 0
}
