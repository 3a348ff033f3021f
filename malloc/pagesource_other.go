//go:build !unix

package malloc

import "github.com/bnclabs/gomalloc/api"

func newmmapsource(capacity int64) api.Pagesource {
	warnf("%v mmap not supported on this platform, using heap\n", logprefix)
	return newheapsource(capacity)
}
