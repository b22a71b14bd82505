// Package overlay draws anti-aliased 2-D telemetry primitives on top of
// the current video frame, scoped to one frame bracket at a time.
//
// Contract:
//   - BeginFrame opens a bracket sized to the physical surface; EndFrame
//     replays everything recorded since BeginFrame in a single batch
//   - All coordinates are logical (pre-scale) pixels; the compositor
//     applies the device pixel scale internally
//   - Any primitive issued outside an open bracket is a silent no-op,
//     never a fault: the render loop must not crash from a misordered
//     call
//   - The compositor is render-thread-only; no method is safe for
//     concurrent use
package overlay
