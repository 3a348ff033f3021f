package malloc

import "fmt"
import "sync"
import "testing"
import "unsafe"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestConcur(t *testing.T) {
	nroutines, repeat, nallocs := 4, 100, 10000
	if testing.Short() {
		repeat = 10
	}

	heap, src := newtestheap(64 * Maxpages)
	defer src.Release()

	var wg sync.WaitGroup
	errch := make(chan error, nroutines)
	wg.Add(nroutines)
	for n := 0; n < nroutines; n++ {
		go testallocator(heap, uint64(n), repeat, nallocs, errch, &wg)
	}
	wg.Wait()
	close(errch)
	for err := range errch {
		t.Error(err)
	}

	require.NoError(t, heap.pages.validate())
	info := heap.Info()
	assert.Equal(t, info.Held, info.Free, "%v", info)
	assert.Equal(t, int64(0), info.Huge)
	t.Log(info)
}

// testallocator allocate 16 byte blocks, stamp each with owner and
// position, verify stamps and free all of them, `repeat` times.
func testallocator(
	heap *Heap, n uint64, repeat, nallocs int,
	errch chan<- error, wg *sync.WaitGroup) {

	defer wg.Done()

	tc := heap.Threadcache()
	defer tc.Release()

	ptrs := make([]unsafe.Pointer, 0, nallocs)
	for round := 0; round < repeat; round++ {
		for i := 0; i < nallocs; i++ {
			ptr, err := tc.Alloc(16)
			if err != nil {
				errch <- err
				return
			} else if uintptr(ptr)&7 != 0 {
				errch <- fmt.Errorf("block %x not 8 byte aligned", ptr)
				return
			}
			block := (*[2]uint64)(ptr)
			block[0], block[1] = n, uint64(i)
			ptrs = append(ptrs, ptr)
		}
		for i, ptr := range ptrs {
			block := (*[2]uint64)(ptr)
			if block[0] != n || block[1] != uint64(i) {
				fmsg := "routine %v block %v aliased, got %v/%v"
				errch <- fmt.Errorf(fmsg, n, i, block[0], block[1])
				return
			}
			tc.Free(ptr)
		}
		ptrs = ptrs[:0]
	}
}
