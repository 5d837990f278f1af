// Package engine implements a dependency-aware execution scheduler.
//
// Clients submit instructions — an opaque function plus the resource tags it
// reads and the resource tags it mutates — and the engine orders execution so
// that, for any single resource, effects are observed as if instructions ran
// in submission order, while independent or read-only work runs concurrently.
//
// The engine is domain-agnostic: it never inspects the instruction's function
// or its arguments, only the read/mutate sets declared at Push time. Typical
// callers wrap tensor kernels, graph node executions, or any other unit of
// work that needs cross-resource ordering without a global lock.
//
// Basic usage:
//
//	eng := engine.New()
//	x := eng.MustNewVariable("x")
//	y := eng.MustNewVariable("y")
//	z := eng.MustNewVariable("z")
//	eng.Start()
//	eng.Push(func() { /* z = x + y */ }, []engine.Tag{x, y}, []engine.Tag{z}, nil)
//	eng.Push(func() { /* print(z) */ }, []engine.Tag{z}, nil, nil)
//	eng.Stop() // blocks until both instructions have run
package engine
