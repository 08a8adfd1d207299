package db

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Page selects a window of a list result
type Page struct {
	Limit  int
	Offset int
}

// NewPage normalises raw pagination input: limit defaults to 100 and is
// clamped to [1, 500]; offset is never negative
func NewPage(limit, offset *int) Page {
	p := Page{Limit: DefaultPageLimit}
	if limit != nil {
		p.Limit = min(max(*limit, 1), MaxPageLimit)
	}
	if offset != nil && *offset > 0 {
		p.Offset = *offset
	}
	return p
}
