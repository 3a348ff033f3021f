package malloc

import "fmt"
import "unsafe"

// centralcache mediates between thread caches and page cache, one span
// list per size class each under its own lock. Lock order is central
// list lock first, page cache lock second.
type centralcache struct {
	pages *pagecache
	lists [Numclasses]spanlist
}

func newcentralcache(set *spanset, pages *pagecache) *centralcache {
	cc := &centralcache{pages: pages}
	for i := range cc.lists {
		cc.lists[i].init(set)
	}
	return cc
}

// fetchrange hand out up to `k` objects of `size` bytes as a nil
// terminated chain. Objects come from a single span, so the count can
// fall short of `k` even when other spans have spare objects.
func (cc *centralcache) fetchrange(
	k, size int64) (start, end unsafe.Pointer, n int64, err error) {

	list := &cc.lists[Sizeindex(size)]
	list.Lock()
	defer list.Unlock()

	var sp *span
	for id := list.begin(); id != list.end(); id = list.next(id) {
		if candidate := list.set.get(id); !candidate.empty() {
			sp = candidate
			break
		}
	}
	if sp == nil {
		if sp, err = cc.fetchspan(size); err != nil {
			return nil, nil, 0, err
		}
		list.pushfront(sp)
	}

	start, end, n = sp.fetchrange(k)
	if sp.empty() { // keep spans with free objects near the front.
		list.erase(sp)
		list.pushback(sp)
	}
	return start, end, n, nil
}

// fetchspan get a span from page cache and slice it into `size` byte
// objects.
func (cc *centralcache) fetchspan(size int64) (*span, error) {
	sp, err := cc.pages.newspan(Numfetchpage(size))
	if err != nil {
		return nil, fmt.Errorf("centralcache class %v: %w", size, err)
	}
	n := sp.activate(size)
	fmsg := "%v activate span %v, %v pages into %v objects of %v\n"
	tracef(fmsg, logprefix, sp.id, sp.npages, n, size)
	return sp, nil
}

// releaselisttospans return a nil terminated chain of `size` byte
// objects to their spans. Spans that become fully free go back to page
// cache. Every object must have been handed out by fetchrange.
func (cc *centralcache) releaselisttospans(
	start unsafe.Pointer, count, size int64) {

	list := &cc.lists[Sizeindex(size)]
	list.Lock()
	defer list.Unlock()

	for obj, n := start, int64(0); obj != nil && n < count; n++ {
		next := *nextobj(obj)
		sp := cc.pages.lookup(pageof(obj))
		if sp == nil {
			errorf("%v release of untracked object %p\n", logprefix, obj)
			obj = next
			continue
		}
		sp.restoreobject(obj)
		if sp.isfullyfree() {
			list.erase(sp)
			sp.clear()
			cc.pages.freespan(sp)
		}
		obj = next
	}
}
