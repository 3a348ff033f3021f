package api

import "errors"

// ErrorOutofMemory operation cannot succeed because the operating
// system, or the configured capacity, cannot supply more pages.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// ErrorUnknownPointer pointer was not handed out by this source.
var ErrorUnknownPointer = errors.New("malloc.unknownpointer")
