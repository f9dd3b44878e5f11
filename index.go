package xbind

import "strconv"

// ParamIndex records where each identifier of a translated statement sits.
// It is built once at prepare time and only read afterward, so it may be
// shared freely.
type ParamIndex struct {
	order     []string
	counts    map[string]int
	positions map[string][]int
	scheme    Scheme
}

// NewParamIndex builds the index for the identifiers Translate returned.
// It returns nil when there are none: the statement is pure positional.
func NewParamIndex(names []string) *ParamIndex { return newParamIndex(names, nil) }

// newParamIndex places names[i] at positions[i], or at i+1 when positions
// is nil.
func newParamIndex(names []string, positions []int) *ParamIndex {
	if len(names) == 0 {
		return nil
	}
	ix := &ParamIndex{
		order:     append([]string(nil), names...),
		counts:    make(map[string]int, len(names)),
		positions: make(map[string][]int, len(names)),
		scheme:    classify(names),
	}
	for i, n := range names {
		ix.counts[n]++
		pos := i + 1
		if positions != nil {
			pos = positions[i]
		}
		k := ix.key(n)
		ix.positions[k] = append(ix.positions[k], pos)
	}
	return ix
}

// key canonicalises numeric identifiers so "01" and "1" share positions.
func (ix *ParamIndex) key(id string) string {
	if ix.scheme != SchemeNumeric || !isDigits(id) {
		return id
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return strconv.Itoa(n)
}

// Scheme reports SchemeNumeric or SchemeNamed; a nil index is positional.
func (ix *ParamIndex) Scheme() Scheme {
	if ix == nil {
		return SchemePositional
	}
	return ix.scheme
}

// Len is the number of placeholder occurrences.
func (ix *ParamIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Order returns a copy of the identifiers, one per occurrence.
func (ix *ParamIndex) Order() []string {
	if ix == nil {
		return nil
	}
	return append([]string(nil), ix.order...)
}

// Count reports how many times id occurs.
func (ix *ParamIndex) Count(id string) int {
	if ix == nil {
		return 0
	}
	return ix.counts[id]
}

// PositionsFor returns the 1-based positions of every occurrence of id, in
// order. Unknown identifiers yield nil.
func (ix *ParamIndex) PositionsFor(id string) []int {
	if ix == nil {
		return nil
	}
	return append([]int(nil), ix.positions[ix.key(id)]...)
}

func (ix *ParamIndex) positionsForNumber(n int) []int {
	return ix.PositionsFor(strconv.Itoa(n))
}
