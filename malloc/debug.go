//go:build debug

package malloc

import "unsafe"

var poolblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poolblkinit); i++ {
		poolblkinit[i] = 0xff
	}
}

// initblock fill a block handed out to caller with 0xff.
func initblock(block unsafe.Pointer, size int64) {
	dst := unsafe.Slice((*byte)(block), size)
	for len(dst) > 0 {
		dst = dst[copy(dst, poolblkinit):]
	}
}
