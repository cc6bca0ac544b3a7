// Package psddiff provides structural parsing, binary diffing, and
// content-addressed deduplication for Adobe Photoshop PSD and PSB files.
//
// The package models a PSD as a tree of labeled byte ranges ("blocks")
// rather than decoded pixels: it never renders or transcodes image data.
// On top of that block tree it builds a compact binary diff format
// (PSDDIFF1) that can be created, applied, and composed, plus a
// decomposer that splits a PSD into deduplicated, content-addressed
// chunks shared across a working directory.
//
// Basic usage for diffing:
//
//	n, err := psddiff.Measure("a.psd", "b.psd")
//	err = psddiff.Create("a.psd", "b.psd", diffWriter)
//	err = psddiff.Apply("a.psd", []string{"a-to-b.diff"}, outWriter)
//
// Basic usage for deduplication:
//
//	err := psddiff.Decompose([]string{"a.psd", "b.psd"})
//	err = psddiff.Restore([]string{"a.psd.decomposed"}, "", ".restored", nil)
package psddiff
