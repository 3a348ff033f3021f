package malloc

import "testing"
import "unsafe"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestSpanActivate(t *testing.T) {
	base, src := testpages(2)
	defer src.Release()

	set := newspanset()
	sp := set.alloc()
	sp.setpages(base, 2)

	// 8192 / 144 leaves a tail of 128 bytes that is not carved.
	n := sp.activate(144)
	assert.Equal(t, int64(56), n)
	assert.Equal(t, int64(56), sp.flist.size())
	assert.Equal(t, int64(144), sp.objsize)
	assert.True(t, sp.isfullyfree()) // nothing checked out yet.

	start, end, got := sp.fetchrange(10)
	require.Equal(t, int64(10), got)
	assert.Equal(t, base, start)
	assert.Equal(t, blockat(base, 9*144), end)
	assert.Equal(t, int64(10), sp.inuse)

	start, _, got = sp.fetchrange(100)
	require.Equal(t, int64(46), got)
	assert.True(t, sp.empty())
	assert.False(t, sp.isfullyfree())
	var last unsafe.Pointer
	for obj := start; obj != nil; obj = *nextobj(obj) {
		last = obj
	}
	if limit := sp.limit(); uintptr(last)+144 > limit {
		t.Errorf("object %p overruns span limit %x", last, limit)
	}

	for off := int64(0); off+144 <= 2*Pagesize; off += 144 {
		sp.restoreobject(blockat(base, off))
		if sp.inuse > 0 && sp.isfullyfree() {
			t.Fatalf("fully free with %v objects out", sp.inuse)
		}
	}
	assert.Equal(t, int64(0), sp.inuse)
	assert.True(t, sp.isfullyfree())

	sp.clear()
	assert.True(t, sp.empty())
	assert.False(t, sp.isfullyfree())
	assert.Equal(t, int64(0), sp.objsize)
	assert.Equal(t, pageof(base), sp.start)
	assert.Equal(t, base, sp.base())
	assert.Equal(t, int64(2), sp.npages)
}

func TestSpanlist(t *testing.T) {
	set := newspanset()
	var list spanlist
	list.init(set)
	assert.True(t, list.empty())
	assert.Equal(t, list.end(), list.begin())
	assert.Panics(t, func() { list.popfront() })

	spans := make([]*span, 0)
	for i := 0; i < 4; i++ {
		sp := set.alloc()
		sp.npages = int64(i + 1)
		spans = append(spans, sp)
	}
	list.pushback(spans[1])
	list.pushfront(spans[0])
	list.pushback(spans[2])
	list.pushback(spans[3])
	assert.Equal(t, int64(4), list.length())

	walk := func() []int64 {
		out := []int64{}
		for id := list.begin(); id != list.end(); id = list.next(id) {
			out = append(out, set.get(id).npages)
		}
		return out
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, walk())

	list.erase(spans[2])
	assert.Equal(t, []int64{1, 2, 4}, walk())
	list.erase(spans[0])
	assert.Equal(t, []int64{2, 4}, walk())

	assert.Equal(t, spans[3], list.popback())
	assert.Equal(t, spans[1], list.popfront())
	assert.True(t, list.empty())
	assert.Equal(t, int64(0), list.length())

	sentinel := set.get(list.end())
	assert.Equal(t, spanSentinel, sentinel.state)
	assert.Panics(t, func() { list.erase(sentinel) })
}

func TestSpansetRecycle(t *testing.T) {
	set := newspanset()
	a, b := set.alloc(), set.alloc()
	assert.NotEqual(t, a.id, b.id)
	assert.NotEqual(t, spanid(0), a.id)

	ida := a.id
	a.npages = 10
	set.free(a)
	c := set.alloc()
	assert.Equal(t, ida, c.id)
	assert.Equal(t, int64(0), c.npages)

	// records stay put across chunk growth.
	first := set.get(b.id)
	for i := 0; i < 3*spanchunksize; i++ {
		set.alloc()
	}
	assert.True(t, first == set.get(b.id))
	live, overhead := set.overhead()
	assert.Equal(t, int64(2+3*spanchunksize), live)
	assert.True(t, overhead > 0)
}
