package main

import "fmt"
import "flag"

import humanize "github.com/dustin/go-humanize"
import "github.com/bnclabs/gomalloc/malloc"

var options struct {
	minsize int64
	maxsize int64
}

func argParse() {
	flag.Int64Var(&options.minsize, "minsize", 1,
		"smallest block size to report")
	flag.Int64Var(&options.maxsize, "maxsize", malloc.Maxsmall,
		"largest block size to report")
	flag.Parse()
}

func main() {
	argParse()
	tellclasses()
}

// tellclasses print every size class in range with its batch size,
// pages per batch, objects carved per span, the worst case internal
// fragmentation of a block in that class and the span tail left
// uncarved.
func tellclasses() {
	if options.minsize < 1 || options.maxsize > malloc.Maxsmall {
		fmt.Printf("sizes must be within [1,%v]\n", malloc.Maxsmall)
		return
	}
	from := malloc.Sizeindex(options.minsize)
	till := malloc.Sizeindex(options.maxsize)
	fmsg := "class %3v size %8v batch %3v pages %3v objects %4v " +
		"waste %5.2f%% tail %5.2f%%\n"
	prevsize := int64(0)
	if from > 0 {
		prevsize = malloc.Classsize(from - 1)
	}
	for index := from; index <= till; index++ {
		size := malloc.Classsize(index)
		npages := malloc.Numfetchpage(size)
		objects := (npages << malloc.Pageshift) / size
		waste := (float64(size-prevsize-1) / float64(size)) * 100
		spansize := npages << malloc.Pageshift
		tail := (float64(spansize-objects*size) / float64(spansize)) * 100
		batch := malloc.Numfetchobject(size)
		fmt.Printf(
			fmsg, index, humanize.IBytes(uint64(size)), batch, npages,
			objects, waste, tail)
		prevsize = size
	}
	fmt.Printf("total %v size classes\n", till-from+1)
}
