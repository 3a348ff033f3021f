package malloc

// Pageshift page size is 1 << Pageshift bytes.
const Pageshift = 12

// Pagesize unit of book-keeping for page cache.
const Pagesize = int64(1 << Pageshift)

// Maxsmall largest block size served from thread cache.
const Maxsmall = int64(64 * 1024)

// Maxpages largest span, in pages, managed by page cache. This is also
// the number of pages acquired from OS on every refill.
const Maxpages = int64(128)

// Maxlarge largest block size served from page cache, anything larger
// is mapped directly from OS.
const Maxlarge = Maxpages << Pageshift

// Numclasses number of size classes, one free-list per class.
const Numclasses = 16 + 56 + 56 + 112

// Minfetch and Maxfetch bound the number of objects moved between thread
// cache and central cache in one batch.
const (
	Minfetch = int64(2)
	Maxfetch = int64(512)
)

// sizegroup is a range of block sizes sharing the same rounding.
type sizegroup struct {
	limit   int64 // inclusive upper bound of this group
	shift   uint  // log2 of granularity
	offset  int64 // first class index of this group
	nclass  int64 // number of classes in this group
	lowerby int64 // upper bound of previous group
}

var sizegroups = [4]sizegroup{
	{limit: 128, shift: 3, offset: 0, nclass: 16, lowerby: 0},
	{limit: 1024, shift: 4, offset: 16, nclass: 56, lowerby: 128},
	{limit: 8 * 1024, shift: 7, offset: 72, nclass: 56, lowerby: 1024},
	{limit: Maxsmall, shift: 9, offset: 128, nclass: 112, lowerby: 8 * 1024},
}

func groupof(n int64) *sizegroup {
	if n < 1 || n > Maxsmall {
		panicerr("size %v outside small range [1,%v]", n, Maxsmall)
	}
	for i := range sizegroups {
		if n <= sizegroups[i].limit {
			return &sizegroups[i]
		}
	}
	panic("unreachable code")
}

// Roundup `n` bytes to the canonical block size of its size class.
// Panics if `n` is outside [1, Maxsmall].
func Roundup(n int64) int64 {
	return roundalign(n, int64(1)<<groupof(n).shift)
}

// Sizeindex return the size class of `n` bytes, in [0, Numclasses).
// Panics if `n` is outside [1, Maxsmall].
func Sizeindex(n int64) int {
	group := groupof(n)
	n -= group.lowerby
	return int(group.offset + ((n+(1<<group.shift)-1)>>group.shift - 1))
}

// Classsize return the canonical block size for size class `index`.
func Classsize(index int) int64 {
	if index < 0 || index >= Numclasses {
		panicerr("size class %v outside [0,%v)", index, Numclasses)
	}
	for _, group := range sizegroups {
		if int64(index) < group.offset+group.nclass {
			slot := int64(index) - group.offset + 1
			return group.lowerby + (slot << group.shift)
		}
	}
	panic("unreachable code")
}

// Numfetchobject number of objects of `size` bytes moved between thread
// cache and central cache in one batch. Small objects move in large
// batches and large objects in small batches.
func Numfetchobject(size int64) int64 {
	if size <= 0 {
		return 0
	}
	num := Maxsmall / size
	if num < Minfetch {
		num = Minfetch
	} else if num > Maxfetch {
		num = Maxfetch
	}
	return num
}

// Numfetchpage number of pages to request from page cache to hold one
// batch of `size` byte objects.
func Numfetchpage(size int64) int64 {
	npages := (Numfetchobject(size) * size) >> Pageshift
	if npages == 0 {
		npages = 1
	}
	return npages
}

func roundalign(n, align int64) int64 {
	return (n + align - 1) &^ (align - 1)
}

func roundpages(n int64) int64 {
	return roundalign(n, Pagesize) >> Pageshift
}
