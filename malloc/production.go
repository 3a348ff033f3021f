//go:build !debug

package malloc

import "unsafe"

// initblock blocks are handed out uninitialized.
func initblock(block unsafe.Pointer, size int64) {
}
