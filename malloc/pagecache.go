package malloc

import "fmt"
import "sync"
import "unsafe"

import "github.com/bnclabs/gomalloc/api"

// pagecache holds free spans bucketed by page count, 1..Maxpages, and
// the index from page id to span. It is the only tier talking to the
// page source. All operations are serialized by one lock, except
// lookup() which reads the index lock free.
type pagecache struct {
	mu      sync.Mutex
	set     *spanset
	pmap    *pagemap
	source  api.Pagesource
	buckets [Maxpages + 1]spanlist

	// accounting, in pages.
	heldpages int64 // acquired from source for bucketing
	freepages int64 // parked in buckets
	nsplits   int64
	nmerges   int64
}

func newpagecache(set *spanset, source api.Pagesource) *pagecache {
	pc := &pagecache{set: set, pmap: newpagemap(), source: source}
	for npages := int64(1); npages <= Maxpages; npages++ {
		pc.buckets[npages].init(set)
	}
	return pc
}

// newspan return a span of exactly `npages` pages, page range indexed
// and not linked into any list.
func (pc *pagecache) newspan(npages int64) (*span, error) {
	if npages < 1 || npages > Maxpages {
		panicerr("newspan %v pages outside [1,%v]", npages, Maxpages)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if sp := pc.carve(npages); sp != nil {
		return sp, nil
	}
	if err := pc.refill(); err != nil {
		return nil, err
	}
	// refill parked a Maxpages span, carve cannot fail now.
	if sp := pc.carve(npages); sp != nil {
		return sp, nil
	}
	panic("unreachable code")
}

// carve a span of `npages` from an exact bucket, or from the tail of a
// larger span. Return nil if all buckets from `npages` up are empty.
func (pc *pagecache) carve(npages int64) *span {
	if bucket := &pc.buckets[npages]; !bucket.empty() {
		sp := bucket.popfront()
		sp.state = spanInuse
		pc.freepages -= npages
		return sp
	}
	for n := npages + 1; n <= Maxpages; n++ {
		bucket := &pc.buckets[n]
		if bucket.empty() {
			continue
		}
		donor := bucket.popfront()
		sp := pc.set.alloc()
		sp.setpages(unsafe.Add(donor.mem, (donor.npages-npages)<<Pageshift), npages)
		sp.state = spanInuse
		donor.npages -= npages
		pc.buckets[donor.npages].pushfront(donor)
		pc.pmap.setrange(sp.start, sp.npages, sp.id)
		pc.freepages -= npages
		pc.nsplits++
		fmsg := "%v split span %v into %v+%v pages at %p\n"
		tracef(fmsg, logprefix, donor.id, donor.npages, npages, sp.base())
		return sp
	}
	return nil
}

// refill acquire Maxpages pages from source as one free span.
func (pc *pagecache) refill() error {
	base, err := pc.source.Acquirepages(Maxpages)
	if err != nil {
		return fmt.Errorf("pagecache refill: %w", err)
	}
	sp := pc.set.alloc()
	sp.setpages(base, Maxpages)
	sp.state = spanFree
	pc.pmap.setrange(sp.start, sp.npages, sp.id)
	pc.buckets[Maxpages].pushfront(sp)
	pc.heldpages += Maxpages
	pc.freepages += Maxpages
	debugf("%v refill %v pages at %p\n", logprefix, Maxpages, base)
	return nil
}

// freespan park a cleared span back into buckets, merging it with free
// neighbours as long as the result does not exceed Maxpages.
func (pc *pagecache) freespan(sp *span) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if sp.state != spanInuse {
		panicerr("freespan on %v span %v", sp.state, sp.id)
	}
	pc.freepages += sp.npages

	for sp.start > 0 { // merge leftwards
		prev := pc.lookup(sp.start - 1)
		if prev == nil || prev.state != spanFree {
			break
		} else if prev.npages+sp.npages > Maxpages {
			break
		}
		pc.buckets[prev.npages].erase(prev)
		sp.setpages(prev.mem, sp.npages+prev.npages)
		pc.pmap.setrange(prev.start, prev.npages, sp.id)
		pc.set.free(prev)
		pc.nmerges++
	}
	for { // merge rightwards
		next := pc.lookup(sp.start + pageid(sp.npages))
		if next == nil || next.state != spanFree {
			break
		} else if next.npages+sp.npages > Maxpages {
			break
		}
		pc.buckets[next.npages].erase(next)
		sp.npages += next.npages
		pc.pmap.setrange(next.start, next.npages, sp.id)
		pc.set.free(next)
		pc.nmerges++
	}

	sp.state = spanFree
	pc.buckets[sp.npages].pushfront(sp)
	tracef("%v free span %v, %v pages at %p\n", logprefix, sp.id, sp.npages, sp.base())
}

// lookup span owning page `id`, nil if the page is not tracked.
func (pc *pagecache) lookup(id pageid) *span {
	if sid := pc.pmap.get(id); sid != 0 {
		return pc.set.get(sid)
	}
	return nil
}

// sysalloc map `npages` directly from source, bypassing buckets and
// index.
func (pc *pagecache) sysalloc(npages int64) (unsafe.Pointer, error) {
	base, err := pc.source.Acquirepages(npages)
	if err != nil {
		return nil, fmt.Errorf("sysalloc %v pages: %w", npages, err)
	}
	return base, nil
}

func (pc *pagecache) sysfree(base unsafe.Pointer) error {
	return pc.source.Releasepages(base)
}

// release every page held, page cache is not usable afterwards.
func (pc *pagecache) release() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.source.Release()
	pc.heldpages, pc.freepages = 0, 0
}

// pages return pages held for bucketing and pages parked in buckets.
func (pc *pagecache) pages() (held, free int64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.heldpages, pc.freepages
}

// validate buckets against index, every parked span must be free, sit
// in the bucket matching its page count and own all of its pages.
func (pc *pagecache) validate() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	freepages := int64(0)
	for npages := int64(1); npages <= Maxpages; npages++ {
		bucket := &pc.buckets[npages]
		count := int64(0)
		for id := bucket.begin(); id != bucket.end(); id = bucket.next(id) {
			sp := pc.set.get(id)
			if sp.state != spanFree {
				return fmt.Errorf("span %v in bucket %v is %v", id, npages, sp.state)
			} else if sp.npages != npages {
				fmsg := "span %v with %v pages in bucket %v"
				return fmt.Errorf(fmsg, id, sp.npages, npages)
			} else if uintptr(sp.mem) != sp.start.addr() {
				fmsg := "span %v at %p starts on page %x"
				return fmt.Errorf(fmsg, id, sp.mem, sp.start)
			}
			for page := sp.start; page < sp.start+pageid(sp.npages); page++ {
				if sid := pc.pmap.get(page); sid != id {
					fmsg := "page %x of span %v indexed to %v"
					return fmt.Errorf(fmsg, page, id, sid)
				}
			}
			freepages += npages
			count++
		}
		if count != bucket.length() {
			fmsg := "bucket %v counts %v spans, linked %v"
			return fmt.Errorf(fmsg, npages, bucket.length(), count)
		}
	}
	if freepages != pc.freepages {
		return fmt.Errorf("free pages %v, accounted %v", freepages, pc.freepages)
	}
	return nil
}
