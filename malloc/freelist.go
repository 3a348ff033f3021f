package malloc

import "unsafe"

// nextobj return a reference to the link word of a free block. While a
// block is free its first machine word points to the next free block,
// valid only because no block is smaller than a pointer.
func nextobj(block unsafe.Pointer) *unsafe.Pointer {
	return (*unsafe.Pointer)(block)
}

// setnext link `block` to `next`. Link word can still hold caller
// data, it is cleared as a plain word before a pointer is stored.
func setnext(block, next unsafe.Pointer) {
	*(*uintptr)(block) = 0
	*nextobj(block) = next
}

// freelist is an intrusive singly linked list of free blocks of the
// same size. Not thread safe, each instance has a single owner.
type freelist struct {
	head unsafe.Pointer
	n    int64
}

func (fl *freelist) empty() bool {
	return fl.head == nil
}

func (fl *freelist) size() int64 {
	return fl.n
}

func (fl *freelist) push(block unsafe.Pointer) {
	setnext(block, fl.head)
	fl.head = block
	fl.n++
}

func (fl *freelist) pop() unsafe.Pointer {
	if fl.head == nil {
		panicerr("pop on empty freelist")
	}
	block := fl.head
	fl.head = *nextobj(block)
	fl.n--
	return block
}

// pushrange splice an already linked chain of `n` blocks, from `start`
// to `end`, in front of the list. Link word of `end` is overwritten.
func (fl *freelist) pushrange(start, end unsafe.Pointer, n int64) {
	if n == 0 {
		return
	}
	setnext(end, fl.head)
	fl.head = start
	fl.n += n
}

// poprange detach up to `k` blocks from the front and return them as
// a nil terminated chain. Returned count can be less than `k` if the
// list is shorter.
func (fl *freelist) poprange(k int64) (start, end unsafe.Pointer, n int64) {
	var prev unsafe.Pointer
	cur := fl.head
	for cur != nil && n < k {
		prev, cur = cur, *nextobj(cur)
		n++
	}
	if n == 0 {
		return nil, nil, 0
	}
	start, end = fl.head, prev
	setnext(end, nil)
	fl.head = cur
	fl.n -= n
	return start, end, n
}

func (fl *freelist) clear() {
	fl.head, fl.n = nil, 0
}
