// Package parallel provides the worker pool behind glyphraster.Pool.
//
// Every worker goroutine owns worker-local state (a font context) and each
// task is told which worker runs it, so a task stolen by an idle worker uses
// the thief's state rather than the victim's.
package parallel
