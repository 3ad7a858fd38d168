package domain

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Result is the immutable output of a decision maker: a ranking of the
// alternatives plus method specific extra values.
type Result struct {
	method string
	anames []string
	rank   []int
	extra  map[string]any
}

// NewResult validates and builds a Result. rank must be a permutation of
// 1..len(anames) where 1 is the best alternative. extra is deep copied.
func NewResult(method string, anames []string, rank []int, extra map[string]any) (*Result, error) {
	if method == "" {
		return nil, &ArgumentError{Argument: "method", Err: ErrMissingArgument}
	}
	if len(anames) == 0 {
		return nil, NewArgumentError("anames", ErrEmptyMatrix, "no alternatives")
	}
	if len(rank) != len(anames) {
		return nil, NewArgumentError("rank", ErrShapeMismatch, "%d ranks for %d alternatives", len(rank), len(anames))
	}
	if !isPermutation(rank) {
		return nil, NewArgumentError("rank", ErrInvalidRank, "%v is not a permutation of 1..%d", rank, len(rank))
	}
	if _, err := labels("anames", "A", anames, len(anames)); err != nil {
		return nil, err
	}

	copied := make(map[string]any, len(extra))
	for k, v := range extra {
		copied[k] = deepCopyValue(v)
	}
	return &Result{
		method: method,
		anames: slices.Clone(anames),
		rank:   slices.Clone(rank),
		extra:  copied,
	}, nil
}

// Method returns the name of the method that produced the result.
func (r *Result) Method() string { return r.method }

// Anames returns a copy of the alternative labels.
func (r *Result) Anames() []string { return slices.Clone(r.anames) }

// Rank returns a copy of the ranking, aligned with Anames.
func (r *Result) Rank() []int { return slices.Clone(r.rank) }

// Len returns the number of ranked alternatives.
func (r *Result) Len() int { return len(r.rank) }

// Extra returns a deep copy of the method specific values.
func (r *Result) Extra() map[string]any {
	out := make(map[string]any, len(r.extra))
	for k, v := range r.extra {
		out[k] = deepCopyValue(v)
	}
	return out
}

// ExtraValue returns a deep copy of one extra value.
func (r *Result) ExtraValue(key string) (any, bool) {
	v, ok := r.extra[key]
	if !ok {
		return nil, false
	}
	return deepCopyValue(v), true
}

// ExtraKeys returns the extra keys in sorted order.
func (r *Result) ExtraKeys() []string {
	keys := make([]string, 0, len(r.extra))
	for k := range r.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RankOf returns the rank of the named alternative.
func (r *Result) RankOf(aname string) (int, error) {
	i := slices.Index(r.anames, aname)
	if i < 0 {
		return 0, fmt.Errorf("%w: alternative %q", ErrKeyNotFound, aname)
	}
	return r.rank[i], nil
}

// Ranked returns the alternative labels ordered from best to worst.
func (r *Result) Ranked() []string {
	out := make([]string, len(r.rank))
	for i, rank := range r.rank {
		out[rank-1] = r.anames[i]
	}
	return out
}

// Equal reports whether both results share method, alternatives and rank.
// Extra values are not compared.
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.method == other.method &&
		slices.Equal(r.anames, other.anames) &&
		slices.Equal(r.rank, other.rank)
}

// String renders the ranking as a two row table followed by the method.
func (r *Result) String() string {
	ranks := make([]string, len(r.rank))
	widths := make([]int, len(r.rank))
	for i, rank := range r.rank {
		ranks[i] = strconv.Itoa(rank)
		widths[i] = max(len([]rune(r.anames[i])), len(ranks[i]))
	}

	var b strings.Builder
	b.WriteString("Alternatives")
	for i, name := range r.anames {
		b.WriteByte(' ')
		b.WriteString(padLeft(name, widths[i]))
	}
	b.WriteString("\nRank        ")
	for i, rank := range ranks {
		b.WriteByte(' ')
		b.WriteString(padLeft(rank, widths[i]))
	}
	fmt.Fprintf(&b, "\n[Method: %s]", r.method)
	return b.String()
}
