package malloc

import "fmt"

import gohumanize "github.com/dustin/go-humanize"

// Info memory accounting for a heap, all sizes in bytes.
type Info struct {
	Acquired int64 // held from page source, including huge blocks
	Held     int64 // held by page cache for spans
	Free     int64 // parked in page cache buckets
	Inuse    int64 // in spans handed to central cache or large blocks
	Huge     int64 // mapped directly for huge blocks
	Spans    int64 // live span records, including list sentinels
	Overhead int64 // span records and page index
	Splits   int64 // number of spans carved from larger spans
	Merges   int64 // number of spans absorbed by a neighbour
}

// Info return memory accounting for this heap.
func (heap *Heap) Info() Info {
	pc := heap.pages
	pc.mu.Lock()
	held, free := pc.heldpages<<Pageshift, pc.freepages<<Pageshift
	splits, merges := pc.nsplits, pc.nmerges
	pmapoverhead := pc.pmap.overhead()
	pc.mu.Unlock()

	live, overhead := heap.set.overhead()
	acquired := heap.source.Acquired()
	return Info{
		Acquired: acquired,
		Held:     held,
		Free:     free,
		Inuse:    held - free,
		Huge:     acquired - held,
		Spans:    live,
		Overhead: overhead + pmapoverhead,
		Splits:   splits,
		Merges:   merges,
	}
}

// Log heap accounting, if humanize is true byte counts are formatted
// for reading.
func (heap *Heap) Log(humanize bool) {
	info := heap.Info()
	dohumanize := func(val int64) interface{} {
		if humanize {
			return humanizebytes(val)
		}
		return val
	}
	fmsg := "%v acquired %v, held %v, free %v, inuse %v, huge %v\n"
	infof(
		fmsg, logprefix, dohumanize(info.Acquired), dohumanize(info.Held),
		dohumanize(info.Free), dohumanize(info.Inuse), dohumanize(info.Huge))
	fmsg = "%v spans %v, overhead %v, splits %v, merges %v\n"
	infof(
		fmsg, logprefix, info.Spans, dohumanize(info.Overhead),
		info.Splits, info.Merges)
}

func (info Info) String() string {
	fmsg := "acquired:%v held:%v free:%v inuse:%v huge:%v spans:%v"
	return fmt.Sprintf(
		fmsg, humanizebytes(info.Acquired), humanizebytes(info.Held),
		humanizebytes(info.Free), humanizebytes(info.Inuse),
		humanizebytes(info.Huge), info.Spans)
}

func humanizebytes(val int64) string {
	if val < 0 {
		return "-" + gohumanize.IBytes(uint64(-val))
	}
	return gohumanize.IBytes(uint64(val))
}
