package engine

import (
	"fmt"
	"sync/atomic"
)

// anonCounter generates unique suffixes for unnamed tags.
var anonCounter int64

// Tag is an opaque, comparable handle naming one logical resource — a
// tensor, a buffer, a variable, anything the caller wants the engine to
// serialize access around. Two tags are the same resource if and only if
// their Name fields are equal, which makes Tag safe to use as a map key and
// safe to compare with ==.
type Tag struct {
	// Name identifies the resource. Tags sharing a Name refer to the same
	// resource regardless of where or when they were minted.
	Name string
}

// String implements fmt.Stringer, returning the tag's name.
func (t Tag) String() string {
	return t.Name
}

// newAnonymousName synthesizes a unique name for a tag created without one.
func newAnonymousName() string {
	n := atomic.AddInt64(&anonCounter, 1)
	return fmt.Sprintf("tag#%d", n)
}

// dedupeTags returns the union of reads and mutates: mutates first, then the
// remaining reads, each in first-seen order (mutates win when a tag appears
// in both sets). It also reports which of those
// tags are read-only — present in reads but absent from mutates.
func dedupeTags(reads, mutates []Tag) (union []Tag, readOnly map[Tag]bool) {
	seen := make(map[Tag]bool, len(reads)+len(mutates))
	readOnly = make(map[Tag]bool, len(reads))
	union = make([]Tag, 0, len(reads)+len(mutates))

	for _, t := range mutates {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
		}
	}
	for _, t := range reads {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
			readOnly[t] = true
		}
	}
	return union, readOnly
}
