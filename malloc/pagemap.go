package malloc

import "sync/atomic"
import "unsafe"

// pagemap covers 48-bit virtual address space, 36 bits of page id split
// into root and leaf index.
const (
	pagemapLeafbits = 18
	pagemapRootbits = 48 - Pageshift - pagemapLeafbits
	pagemapLeafsize = 1 << pagemapLeafbits
	pagemapRootsize = 1 << pagemapRootbits
)

type pagemapleaf [pagemapLeafsize]atomic.Uint32

// pagemap index from page id to the span owning that page. Writers must
// be serialized by the caller (page cache lock), readers need no lock.
type pagemap struct {
	root   []atomic.Pointer[pagemapleaf]
	nleafs int64
}

func newpagemap() *pagemap {
	return &pagemap{root: make([]atomic.Pointer[pagemapleaf], pagemapRootsize)}
}

func (pm *pagemap) split(id pageid) (int, int) {
	if uint64(id) >= uint64(pagemapRootsize)*pagemapLeafsize {
		panicerr("page id %x outside address space", id)
	}
	return int(id >> pagemapLeafbits), int(id & (pagemapLeafsize - 1))
}

// get span owning page `id`, 0 if the page is untracked.
func (pm *pagemap) get(id pageid) spanid {
	if uint64(id) >= uint64(pagemapRootsize)*pagemapLeafsize {
		return 0
	}
	ri, li := pm.split(id)
	leaf := pm.root[ri].Load()
	if leaf == nil {
		return 0
	}
	return spanid(leaf[li].Load())
}

// setrange map pages [start, start+npages) to span `sid`.
func (pm *pagemap) setrange(start pageid, npages int64, sid spanid) {
	for id := start; id < start+pageid(npages); id++ {
		ri, li := pm.split(id)
		leaf := pm.root[ri].Load()
		if leaf == nil {
			leaf = new(pagemapleaf)
			pm.root[ri].Store(leaf)
			pm.nleafs++
		}
		leaf[li].Store(uint32(sid))
	}
}

// clearrange drop pages [start, start+npages) from index.
func (pm *pagemap) clearrange(start pageid, npages int64) {
	for id := start; id < start+pageid(npages); id++ {
		ri, li := pm.split(id)
		if leaf := pm.root[ri].Load(); leaf != nil {
			leaf[li].Store(0)
		}
	}
}

func (pm *pagemap) overhead() int64 {
	overhead := int64(len(pm.root)) * int64(unsafe.Sizeof(pm.root[0]))
	return overhead + pm.nleafs*int64(unsafe.Sizeof(pagemapleaf{}))
}
