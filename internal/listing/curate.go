package listing

const (
	// CuratedSize is the number of listings a curated sample holds.
	CuratedSize = 6
	// DefaultPageSize is the page size full mode starts from.
	DefaultPageSize = 50
	// PageIncrement is how far each "show more" extends the page.
	PageIncrement = 50
)

// Mode selects how a sorted listing set is displayed.
type Mode string

const (
	ModeCurated Mode = "curated"
	ModeFull    Mode = "full"
)

// ParseMode maps a request value to a Mode. Unknown values fall back to curated.
func ParseMode(s string) Mode {
	if Mode(s) == ModeFull {
		return ModeFull
	}
	return ModeCurated
}

// Curate picks a representative sample from a price-sorted list: the two
// cheapest, the two around the median and the two most expensive, in that
// order. Lists of CuratedSize or fewer are returned whole.
func Curate(sorted []Listing) []Listing {
	n := len(sorted)
	if n <= CuratedSize {
		out := make([]Listing, n)
		copy(out, sorted)
		return out
	}

	mid := n / 2
	indices := [CuratedSize]int{0, 1, mid - 1, mid, n - 2, n - 1}
	out := make([]Listing, 0, CuratedSize)
	for _, i := range indices {
		out = append(out, sorted[i])
	}
	return out
}

// Paginate returns the first count listings, or all of them if there are fewer.
func Paginate(sorted []Listing, count int) []Listing {
	if count < 0 {
		count = 0
	}
	if count > len(sorted) {
		count = len(sorted)
	}
	out := make([]Listing, count)
	copy(out, sorted[:count])
	return out
}

// View is the display state for one analysed listing set. It is a value owned
// by the caller; transitions return the next state.
type View struct {
	Mode            Mode
	PaginationCount int
}

// NewView returns the state a fresh analysis starts in.
func NewView() View {
	return View{Mode: ModeCurated, PaginationCount: DefaultPageSize}
}

// Reset returns to the initial curated state.
func (v View) Reset() View {
	return NewView()
}

// ShowAll switches to full mode with the page size reset to its default.
func (v View) ShowAll() View {
	return View{Mode: ModeFull, PaginationCount: DefaultPageSize}
}

// ShowMore extends the page by PageIncrement without passing total.
// It has no effect outside full mode.
func (v View) ShowMore(total int) View {
	if v.Mode != ModeFull || v.PaginationCount >= total {
		return v
	}
	next := v.PaginationCount + PageIncrement
	if next > total {
		next = total
	}
	return View{Mode: ModeFull, PaginationCount: next}
}

// HasMore reports whether another transition would reveal more listings:
// switching to full mode for a sample, or extending the page in full mode.
func (v View) HasMore(total int) bool {
	if v.Mode == ModeCurated {
		return total > CuratedSize
	}
	return v.PaginationCount < total
}

// Select returns the listings visible in this state.
func (v View) Select(sorted []Listing) []Listing {
	if v.Mode == ModeFull {
		return Paginate(sorted, v.PaginationCount)
	}
	return Curate(sorted)
}
