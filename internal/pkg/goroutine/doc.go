// Package goroutine runs bounded background tasks that must not hold up or
// be canceled by the request that scheduled them.
package goroutine
