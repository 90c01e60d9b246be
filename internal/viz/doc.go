// Package viz renders grasp sessions in the terminal.
//
//   - [LiveModel]: Bubble Tea program stepping a scenario with a Braille
//     scene view and per-hand grasp, finger and joint state
//   - [SummaryTable], [PlotSeries]: static output for finished runs
//   - [Canvas]: Braille dot canvas with a world [Viewport]
//
// # Key Bindings
//
//	Space - Pause/Resume
//	.     - Single tick while paused
//	+/-   - Ticks per frame
//	V     - Toggle top/front view
//	?     - Show help
package viz
