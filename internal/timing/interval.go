package timing

import (
	"fmt"
	"sort"
)

// Interval is a half-open tick range [Start, End)
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Span builds an interval
func Span(start, end int) Interval {
	return Interval{Start: start, End: end}
}

// Len returns the interval length in ticks
func (i Interval) Len() int {
	return i.End - i.Start
}

// IsEmpty reports whether the interval covers no ticks
func (i Interval) IsEmpty() bool {
	return i.End <= i.Start
}

// Contains reports whether tick t falls inside the interval
func (i Interval) Contains(t int) bool {
	return i.Start <= t && t < i.End
}

// Covers reports whether other lies entirely inside i
func (i Interval) Covers(other Interval) bool {
	return i.Start <= other.Start && other.End <= i.End
}

// Intersects reports whether the two intervals share at least one tick
func (i Interval) Intersects(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Shift moves the interval by delta ticks
func (i Interval) Shift(delta int) Interval {
	return Interval{Start: i.Start + delta, End: i.End + delta}
}

// Inclusive extends the end by one tick so that a segment starting exactly at End matches
// overlap queries
func (i Interval) Inclusive() Interval {
	return Interval{Start: i.Start, End: i.End + 1}
}

// DivideInto splits the interval into consecutive pieces of size ticks; the last piece may be
// shorter
func (i Interval) DivideInto(size int) []Interval {
	if size <= 0 || i.IsEmpty() {
		return nil
	}
	var pieces []Interval
	for start := i.Start; start < i.End; start += size {
		end := start + size
		if end > i.End {
			end = i.End
		}
		pieces = append(pieces, Interval{Start: start, End: end})
	}
	return pieces
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Start, i.End)
}

// Join merges touching or overlapping intervals into contiguous windows, ordered by start
func Join(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Start < sorted[b].Start })

	joined := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &joined[len(joined)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		joined = append(joined, iv)
	}
	return joined
}

// Relation is a temporal relation between a candidate interval and a reference interval
type Relation int

const (
	// During: the candidate spans the whole reference
	During Relation = iota
	// Overlapping: the candidate shares at least one tick with the reference
	Overlapping
	// Within: the candidate lies entirely inside the reference
	Within
	// BeginningWithin: the candidate starts inside the reference
	BeginningWithin
	// EndingWithin: the candidate ends inside the reference
	EndingWithin
)

var relationNames = [...]string{"during", "overlapping", "within", "beginning-within", "ending-within"}

func (r Relation) String() string {
	if int(r) < len(relationNames) {
		return relationNames[r]
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// Matches reports whether candidate stands in relation r to ref
func (r Relation) Matches(candidate, ref Interval) bool {
	switch r {
	case During:
		return candidate.Covers(ref)
	case Overlapping:
		return candidate.Intersects(ref)
	case Within:
		return ref.Covers(candidate)
	case BeginningWithin:
		return ref.Contains(candidate.Start)
	case EndingWithin:
		return ref.Start < candidate.End && candidate.End <= ref.End
	}
	return false
}
