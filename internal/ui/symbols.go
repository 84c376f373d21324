package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolPending = "○" // waiting for the first sample
	SymbolLive    = "●" // receiving
	SymbolPaused  = "◫"
	SymbolWarning = "⚠"
	SymbolSkipped = "⊘"
)
