package streaming

import (
	"strconv"
	"strings"
)

// Range is a parsed single byte range. End is inclusive and nil for an
// open-ended "bytes=N-" request.
type Range struct {
	Start uint64
	End   *uint64
}

// ParseRange parses a Range header of the form "bytes=a-b" or "bytes=a-".
// Only the first range of a list is honoured. Suffix ranges ("bytes=-n"),
// other units and malformed values are reported as not ok, which callers
// treat as a plain request for the whole body.
func ParseRange(header string) (Range, bool) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return Range{}, false
	}
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok || first == "" {
		return Range{}, false
	}

	start, err := strconv.ParseUint(strings.TrimSpace(first), 10, 64)
	if err != nil {
		return Range{}, false
	}

	last = strings.TrimSpace(last)
	if last == "" {
		return Range{Start: start}, true
	}

	end, err := strconv.ParseUint(last, 10, 64)
	if err != nil || end < start {
		return Range{}, false
	}

	return Range{Start: start, End: &end}, true
}

// Resolve clamps the range against the bytes currently available. It
// returns ok=false when the start lies at or beyond what is available.
func (r Range) Resolve(size Size) (start, end uint64, ok bool) {
	if r.Start >= size.Available {
		return 0, 0, false
	}

	end = size.Available - 1
	if r.End != nil && *r.End < end {
		end = *r.End
	}

	return r.Start, end, true
}
