//go:build unix

package malloc

import "fmt"
import "unsafe"

import "golang.org/x/sys/unix"
import "github.com/bnclabs/gomalloc/api"

// mmapsource supplies pages from anonymous private mappings.
type mmapsource struct {
	pagebook
	mems map[uintptr][]byte
}

func newmmapsource(capacity int64) api.Pagesource {
	src := &mmapsource{mems: make(map[uintptr][]byte)}
	src.init(capacity)
	return src
}

// Acquirepages implement api.Pagesource{} interface.
func (src *mmapsource) Acquirepages(npages int64) (unsafe.Pointer, error) {
	size := npages << Pageshift
	src.mu.Lock()
	defer src.mu.Unlock()

	if err := src.reserve(size); err != nil {
		return nil, err
	}
	prot, flags := unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE
	mem, err := unix.Mmap(-1, 0, int(size), prot, flags)
	if err != nil {
		src.acquired -= size
		return nil, fmt.Errorf("mmap %v bytes: %v: %w", size, err, api.ErrorOutofMemory)
	}
	base := unsafe.Pointer(&mem[0])
	src.mems[uintptr(base)], src.chunks[uintptr(base)] = mem, size
	verbosef("%v mmap %v pages at %p\n", logprefix, npages, base)
	return base, nil
}

// Releasepages implement api.Pagesource{} interface.
func (src *mmapsource) Releasepages(base unsafe.Pointer) error {
	src.mu.Lock()
	defer src.mu.Unlock()

	key := uintptr(base)
	mem, ok := src.mems[key]
	if !ok {
		return fmt.Errorf("munmap %p: %w", base, api.ErrorUnknownPointer)
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap %p: %v", base, err)
	}
	delete(src.mems, key)
	delete(src.chunks, key)
	src.acquired -= int64(len(mem))
	verbosef("%v munmap %v bytes at %p\n", logprefix, len(mem), base)
	return nil
}

// Release implement api.Pagesource{} interface.
func (src *mmapsource) Release() {
	src.mu.Lock()
	defer src.mu.Unlock()

	for base, mem := range src.mems {
		if err := unix.Munmap(mem); err != nil {
			errorf("%v munmap %x: %v\n", logprefix, base, err)
		}
	}
	src.mems = make(map[uintptr][]byte)
	src.chunks = make(map[uintptr]int64)
	src.acquired = 0
}
