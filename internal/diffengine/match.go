// Package diffengine implements Create, Measure, Apply, and Combine over
// PSDDIFF1 edit scripts (internal/diffcodec) and the PSD block tree
// (internal/psdformat).
package diffengine

import (
	"sort"

	"github.com/deepteams/psddiff/internal/psdformat"
)

// opKind describes how one aligned span of the block trees should be
// handled, before content has been consulted. Unlike diffcodec.Kind it
// distinguishes "same path, need to compare bytes" (opCompare) from a
// definite Skip, since content comparison happens in a later pass.
type opKind byte

const (
	opCompare opKind = iota // present in both trees at this alignment point
	opRemove                // present only in A
	opAdd                   // present only in B
)

// op is one step of the structural alignment between two leaf sequences,
// before any bytes have been read.
type op struct {
	kind  opKind
	aLeaf psdformat.Leaf // valid when kind != opAdd
	bLeaf psdformat.Leaf // valid when kind != opRemove
}

// align walks two ordered leaf sequences and produces a sequence of ops in
// source-cursor order: leaves present in both (by path) are opCompare in
// their mutual order; leaves present only in A are opRemove; leaves
// present only in B are opAdd. Matching uses the path as key and resolves
// containers whose child count differs between the two trees by finding
// the longest run of common paths that preserves relative order in both
// sequences (a longest-increasing-subsequence match over path position),
// treating everything else as a pure insert or delete around it.
func align(leavesA, leavesB []psdformat.Leaf) []op {
	indexInA := make(map[string]int, len(leavesA))
	for i, l := range leavesA {
		indexInA[l.Path] = i
	}

	type candidate struct {
		ai, bi int
	}
	var candidates []candidate
	for bi, l := range leavesB {
		if ai, ok := indexInA[l.Path]; ok {
			candidates = append(candidates, candidate{ai: ai, bi: bi})
		}
	}

	// Longest increasing subsequence over candidate.ai, in candidate
	// (i.e. B) order — the classic patience-sorting construction.
	tailsVal := make([]int, 0, len(candidates))
	tailsIdx := make([]int, 0, len(candidates))
	parent := make([]int, len(candidates))
	for i, c := range candidates {
		pos := sort.SearchInts(tailsVal, c.ai)
		if pos > 0 {
			parent[i] = tailsIdx[pos-1]
		} else {
			parent[i] = -1
		}
		if pos == len(tailsVal) {
			tailsVal = append(tailsVal, c.ai)
			tailsIdx = append(tailsIdx, i)
		} else {
			tailsVal[pos] = c.ai
			tailsIdx[pos] = i
		}
	}

	matchedA := make(map[int]int, len(tailsIdx)) // aIndex -> bIndex
	matchedB := make(map[int]int, len(tailsIdx)) // bIndex -> aIndex
	if len(tailsIdx) > 0 {
		k := tailsIdx[len(tailsIdx)-1]
		for k != -1 {
			c := candidates[k]
			matchedA[c.ai] = c.bi
			matchedB[c.bi] = c.ai
			k = parent[k]
		}
	}

	var ops []op
	ai, bi := 0, 0
	for ai < len(leavesA) || bi < len(leavesB) {
		if ai < len(leavesA) {
			if _, ok := matchedA[ai]; !ok {
				ops = append(ops, op{kind: opRemove, aLeaf: leavesA[ai]})
				ai++
				continue
			}
		}
		if bi < len(leavesB) {
			if _, ok := matchedB[bi]; !ok {
				ops = append(ops, op{kind: opAdd, bLeaf: leavesB[bi]})
				bi++
				continue
			}
		}
		// Both ai and bi now point at a matched pair (matchedA[ai] == bi).
		ops = append(ops, op{kind: opCompare, aLeaf: leavesA[ai], bLeaf: leavesB[bi]})
		ai++
		bi++
	}
	return ops
}

// leaves drains a psdformat.Reader and returns only its leaf events, in
// order, ignoring container boundaries.
func leaves(r *psdformat.Reader) ([]psdformat.Leaf, error) {
	var out []psdformat.Leaf
	for {
		ev, err := r.Next()
		if err != nil {
			if isEOF(err) {
				return out, nil
			}
			return nil, err
		}
		if ev.Kind == psdformat.EventLeaf {
			out = append(out, ev.Leaf)
		}
	}
}
