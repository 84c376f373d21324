// Package ui holds the terminal building blocks shared by fv's commands:
// the color palette, status symbols, sparklines, a CLI spinner for the
// connect phase and the bubbles spinner used by the dashboard.
//
// Use DisableColors() to switch to monochrome output (for --no-color).
package ui
