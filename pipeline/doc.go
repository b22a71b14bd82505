// Package pipeline owns the capture lifecycle and the latest-wins frame
// handoff between the capture context and the render loop.
//
// Philosophy: "Drop frames, never queue. Latency > Completeness."
//
// Design:
//   - Single-slot handoff: a new frame always replaces the previous one,
//     there is no queue and no buffering beyond one slot
//   - Non-blocking reads: LatestFrame() and HasNewFrame() return in the
//     time of a pointer swap, never longer
//   - Explicit state machine: Uninitialized -> Ready -> Running with
//     Paused as a suspend state and Error as the terminal fault state
//   - Transient misses are silent: an acquire timeout is "no new frame
//     this tick", never an error
package pipeline
