// Package ui styles terminal output with lipgloss.
//
// A single [Palette] backs the package-level helpers ([Title], [OK], [Err], [Warn], [Help]).
// Rendering degrades to plain text when the output is not a terminal, so command output stays
// greppable when piped.
package ui
