package utils

import (
	"context"
	"log"
	"runtime/debug"
)

// GoSafe runs fn in a goroutine and recovers a panic instead of crashing the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// ShouldContinue reports whether ctx is still live. Loops that fan out work check it before
// scheduling the next item.
func ShouldContinue(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}
