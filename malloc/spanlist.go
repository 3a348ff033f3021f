package malloc

import "sync"

// spanlist circular doubly linked list of spans with a sentinel record,
// linked through span ids. A span is linked into one list at a time.
// The mutex is used by central cache, page cache lists rely on the
// page cache lock.
type spanlist struct {
	sync.Mutex
	set  *spanset
	head spanid
	n    int64
}

func (list *spanlist) init(set *spanset) *spanlist {
	sentinel := set.alloc()
	sentinel.state = spanSentinel
	sentinel.prev, sentinel.next = sentinel.id, sentinel.id
	list.set, list.head, list.n = set, sentinel.id, 0
	return list
}

func (list *spanlist) empty() bool {
	return list.set.get(list.head).next == list.head
}

func (list *spanlist) length() int64 {
	return list.n
}

// begin first span in the list, equals end() for an empty list.
func (list *spanlist) begin() spanid {
	return list.set.get(list.head).next
}

func (list *spanlist) end() spanid {
	return list.head
}

func (list *spanlist) next(id spanid) spanid {
	return list.set.get(id).next
}

// insert `sp` before `pos`.
func (list *spanlist) insert(pos spanid, sp *span) {
	set := list.set
	at := set.get(pos)
	prev := set.get(at.prev)
	prev.next, sp.prev = sp.id, prev.id
	sp.next, at.prev = at.id, sp.id
	list.n++
}

func (list *spanlist) erase(sp *span) {
	if sp.id == list.head {
		panicerr("erase on spanlist sentinel")
	}
	set := list.set
	prev, next := set.get(sp.prev), set.get(sp.next)
	prev.next, next.prev = next.id, prev.id
	sp.prev, sp.next = 0, 0
	list.n--
}

func (list *spanlist) pushfront(sp *span) {
	list.insert(list.begin(), sp)
}

func (list *spanlist) pushback(sp *span) {
	list.insert(list.head, sp)
}

func (list *spanlist) popfront() *span {
	if list.empty() {
		panicerr("popfront on empty spanlist")
	}
	sp := list.set.get(list.begin())
	list.erase(sp)
	return sp
}

func (list *spanlist) popback() *span {
	if list.empty() {
		panicerr("popback on empty spanlist")
	}
	sp := list.set.get(list.set.get(list.head).prev)
	list.erase(sp)
	return sp
}
