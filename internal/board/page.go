package board

// PageWindow is the slice of the ranked list shown for one tick.
type PageWindow struct {
	Index      int           `json:"page"`
	Size       int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	Rotation   uint64        `json:"rotation"`
	Items      []RankedEntry `json:"items"`
}

// TotalPages returns ceil(n/size), or 0 for an empty list.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns page index of ranked. An out-of-range index yields an
// empty page rather than an error.
func Paginate(ranked []RankedEntry, index, size int) PageWindow {
	page := PageWindow{
		Index:      index,
		Size:       size,
		TotalPages: TotalPages(len(ranked), size),
		Items:      []RankedEntry{},
	}
	if index < 0 || size <= 0 {
		return page
	}

	start := index * size
	if start >= len(ranked) {
		return page
	}
	end := min(start+size, len(ranked))

	page.Items = make([]RankedEntry, end-start)
	copy(page.Items, ranked[start:end])
	return page
}
