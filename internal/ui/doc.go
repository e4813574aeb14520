// Package ui contains the Bubble Tea program behind the preview mode: a
// single-line template editor with the rendered status line underneath.
//
// Message flow:
//   - Key presses edit the template through a bubbles textinput; every
//     Update re-renders the template at the current width.
//   - The runtime's event loop is drained by the program itself. Each queued
//     callback arrives as a loopMsg and runs inside Update, so backtick
//     readers, timers and snapshot updates share the goroutine that renders.
//   - A one second tick keeps time-based directives current.
package ui
