package malloc

import "fmt"
import "sync"
import "unsafe"

import "github.com/bnclabs/golog"
import "github.com/bnclabs/gomalloc/api"

var _ = fmt.Sprintf("dummy")

func init() {
	setts := map[string]interface{}{
		"log.level": "warn",
		"log.file":  "",
	}
	log.SetLogger(nil, setts)
	LogComponents("self")
}

// arenasource hands out consecutive chunks from one large region so
// that chunk adjacency is deterministic. Released chunks are recorded,
// not reused.
type arenasource struct {
	mu       sync.Mutex
	backing  api.Pagesource
	base     unsafe.Pointer
	size     int64
	next     int64 // offset of the next chunk from base
	acquires []int64
	releases []unsafe.Pointer
	chunks   map[uintptr]int64
}

func newarenasource(npages int64) *arenasource {
	backing := newheapsource(Maxcapacity)
	base, err := backing.Acquirepages(npages)
	if err != nil {
		panic(err)
	}
	return &arenasource{
		backing: backing,
		base:    base,
		size:    npages << Pageshift,
		chunks:  make(map[uintptr]int64),
	}
}

func (src *arenasource) Acquirepages(npages int64) (unsafe.Pointer, error) {
	src.mu.Lock()
	defer src.mu.Unlock()

	size := npages << Pageshift
	if src.next+size > src.size {
		return nil, fmt.Errorf("arenasource %v pages: %w", npages, api.ErrorOutofMemory)
	}
	base := unsafe.Add(src.base, src.next)
	src.next += size
	src.acquires = append(src.acquires, npages)
	src.chunks[uintptr(base)] = size
	return base, nil
}

func (src *arenasource) Releasepages(base unsafe.Pointer) error {
	src.mu.Lock()
	defer src.mu.Unlock()

	if _, ok := src.chunks[uintptr(base)]; !ok {
		return fmt.Errorf("arenasource %p: %w", base, api.ErrorUnknownPointer)
	}
	delete(src.chunks, uintptr(base))
	src.releases = append(src.releases, base)
	return nil
}

func (src *arenasource) Chunksize(base unsafe.Pointer) int64 {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.chunks[uintptr(base)]
}

func (src *arenasource) Acquired() int64 {
	src.mu.Lock()
	defer src.mu.Unlock()
	acquired := int64(0)
	for _, size := range src.chunks {
		acquired += size
	}
	return acquired
}

func (src *arenasource) Release() {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.chunks = make(map[uintptr]int64)
	src.backing.Release()
}

func (src *arenasource) nacquires() []int64 {
	src.mu.Lock()
	defer src.mu.Unlock()
	return append([]int64{}, src.acquires...)
}

func (src *arenasource) nreleases() []unsafe.Pointer {
	src.mu.Lock()
	defer src.mu.Unlock()
	return append([]unsafe.Pointer{}, src.releases...)
}

// testpages return `npages` of scratch memory for list and span tests.
func testpages(npages int64) (unsafe.Pointer, api.Pagesource) {
	src := newheapsource(Maxcapacity)
	base, err := src.Acquirepages(npages)
	if err != nil {
		panic(err)
	}
	return base, src
}

// blockat address `off` bytes into `base`.
func blockat(base unsafe.Pointer, off int64) unsafe.Pointer {
	return unsafe.Add(base, off)
}
