package malloc

import "sync"
import "sync/atomic"
import "unsafe"

// spanid stable handle to a span record, 0 means no span.
type spanid uint32

const spanchunkshift = 8
const spanchunksize = 1 << spanchunkshift

// Maxspans maximum number of span records, including list sentinels,
// alive at the same time.
const Maxspans = int64(1 << 24)

type spanchunk [spanchunksize]span

// spanset is a chunked arena of span records. Records never move once
// allocated so a *span obtained from get() stays valid, while released
// ids are recycled. Chunk table is read lock free, allocation and
// release are serialized by the set's mutex.
type spanset struct {
	mu      sync.Mutex
	chunks  []atomic.Pointer[spanchunk]
	nchunks int
	nextid  spanid
	freeids []spanid
	live    int64
}

func newspanset() *spanset {
	return &spanset{
		chunks: make([]atomic.Pointer[spanchunk], Maxspans/spanchunksize),
		nextid: 1,
	}
}

func (set *spanset) get(id spanid) *span {
	chunk := set.chunks[id>>spanchunkshift].Load()
	return &chunk[id&(spanchunksize-1)]
}

// alloc a zeroed span record.
func (set *spanset) alloc() *span {
	set.mu.Lock()
	defer set.mu.Unlock()

	var id spanid
	if n := len(set.freeids); n > 0 {
		id, set.freeids = set.freeids[n-1], set.freeids[:n-1]
	} else {
		id = set.nextid
		if int64(id) >= Maxspans {
			panicerr("span records exhausted, %v", Maxspans)
		}
		if ci := int(id >> spanchunkshift); ci >= set.nchunks {
			set.chunks[ci].Store(new(spanchunk))
			set.nchunks++
		}
		set.nextid++
	}
	set.live++
	sp := set.get(id)
	*sp = span{id: id}
	return sp
}

// free the span record, its id may be handed out again.
func (set *spanset) free(sp *span) {
	set.mu.Lock()
	defer set.mu.Unlock()

	id := sp.id
	*sp = span{}
	set.freeids = append(set.freeids, id)
	set.live--
}

// overhead return the memory, in bytes, used by span records.
func (set *spanset) overhead() (live, overhead int64) {
	set.mu.Lock()
	defer set.mu.Unlock()

	overhead = int64(set.nchunks) * int64(unsafe.Sizeof(spanchunk{}))
	overhead += int64(cap(set.chunks)) * int64(unsafe.Sizeof(set.chunks[0]))
	return set.live, overhead
}
