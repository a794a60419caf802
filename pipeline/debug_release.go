//go:build !debug

package pipeline

// debugLog compiles to nothing without -tags debug.
func debugLog(string, ...interface{}) {}
