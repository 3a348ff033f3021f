package malloc

import "unsafe"

// pageid page number of an address, addr >> Pageshift.
type pageid uint64

func pageof(ptr unsafe.Pointer) pageid {
	return pageid(uintptr(ptr) >> Pageshift)
}

func (id pageid) addr() uintptr {
	return uintptr(id) << Pageshift
}

type spanstate uint8

const (
	spanDead     spanstate = iota // record not describing any pages
	spanFree                      // parked in a page cache bucket
	spanInuse                     // handed to central cache or a large block
	spanSentinel                  // head of a spanlist
)

func (state spanstate) String() string {
	switch state {
	case spanFree:
		return "free"
	case spanInuse:
		return "inuse"
	case spanSentinel:
		return "sentinel"
	}
	return "dead"
}

// span describes a contiguous run of pages. Once activated by central
// cache the page range is sliced into objects of `objsize` bytes, kept
// in `flist` while not handed out.
//
// Page range and state are guarded by page cache lock, objsize, inuse
// and flist by the central cache list the span is linked into.
type span struct {
	id      spanid
	prev    spanid
	next    spanid
	mem     unsafe.Pointer // first byte of the page range
	start   pageid
	npages  int64
	objsize int64 // 0 until sliced
	inuse   int64 // objects checked out to callers
	state   spanstate
	flist   freelist
}

// setpages point the span to `npages` pages starting at `base`.
func (sp *span) setpages(base unsafe.Pointer, npages int64) {
	sp.mem, sp.start, sp.npages = base, pageof(base), npages
}

func (sp *span) base() unsafe.Pointer {
	return sp.mem
}

// limit address just past the page range.
func (sp *span) limit() uintptr {
	return uintptr(sp.mem) + uintptr(sp.npages<<Pageshift)
}

// activate slice the page range into `size` byte objects. Only objects
// that fit entirely inside the range are carved, a tail shorter than
// `size` is left unused. Returns the number of objects carved.
func (sp *span) activate(size int64) int64 {
	sp.flist.clear()
	n := (sp.npages << Pageshift) / size
	// push in reverse so that the list hands out ascending addresses.
	for i := n - 1; i >= 0; i-- {
		sp.addobject(unsafe.Add(sp.mem, i*size))
	}
	sp.objsize, sp.inuse = size, 0
	return n
}

func (sp *span) addobject(obj unsafe.Pointer) {
	sp.flist.push(obj)
}

func (sp *span) restoreobject(obj unsafe.Pointer) {
	sp.flist.push(obj)
	sp.inuse--
}

// fetchrange pop up to `k` objects, counting them as checked out.
func (sp *span) fetchrange(k int64) (start, end unsafe.Pointer, n int64) {
	start, end, n = sp.flist.poprange(k)
	sp.inuse += n
	return start, end, n
}

// empty no free objects left in this span.
func (sp *span) empty() bool {
	return sp.flist.empty()
}

// isfullyfree every object carved from this span has been returned.
func (sp *span) isfullyfree() bool {
	return !sp.flist.empty() && sp.inuse == 0
}

// clear strip object size and free objects, page range is retained.
func (sp *span) clear() {
	sp.flist.clear()
	sp.objsize, sp.inuse = 0, 0
}
