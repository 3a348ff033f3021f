package malloc

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Maxcapacity used as default capacity when system memory cannot be
// determined.
const Maxcapacity = int64(1024 * 1024 * 1024 * 1024) // 1TB

// Defaultsettings for a heap.
//
// "pagesource" (string, default: "mmap")
//		Source of raw pages, "mmap" maps anonymous memory from OS,
//		"heap" carves page aligned blocks out of Go heap. Platforms
//		without mmap fall back to "heap".
//
// "capacity" (int64, default: <total RAM>)
//		Maximum number of bytes held from OS at any time, beyond
//		which allocations fail with ErrorOutofMemory.
//
// "log.components" (string, default: "")
//		Comma separated list of components to enable logging for,
//		refer to LogComponents().
func Defaultsettings() s.Settings {
	capacity := Maxcapacity
	if total, _, _ := getsysmem(); total > 0 {
		capacity = int64(total)
	}
	return s.Settings{
		"pagesource":     "mmap",
		"capacity":       capacity,
		"log.components": "",
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
