package malloc

import "fmt"

import "github.com/bnclabs/gomalloc/api"

// ErrorOutofMemory alias of api.ErrorOutofMemory, returned wrapped by
// every allocation path when pages cannot be acquired from OS.
var ErrorOutofMemory = api.ErrorOutofMemory

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
