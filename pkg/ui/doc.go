// Package ui holds the terminal side of the CLI: colored print helpers,
// progress bars, the end-of-run summary table and stdin prompts.
//
// Colors are enabled only when stdout is a terminal; SetColor overrides
// the detection.
package ui
