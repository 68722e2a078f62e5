package nav

// PageState is everything needed to re-render a paginated view.
type PageState struct {
	Items       []Item
	PerPage     int
	Page        int
	Title       string
	Description string
	Footer      string
}

// TotalPages is max(1, ceil(len(Items)/PerPage)).
func (s PageState) TotalPages() int {
	if s.PerPage <= 0 || len(s.Items) == 0 {
		return 1
	}
	return (len(s.Items) + s.PerPage - 1) / s.PerPage
}

// Bounds returns the half-open index range of the current page.
func (s PageState) Bounds() (start, end int) {
	if s.PerPage <= 0 {
		return 0, 0
	}
	page := s.clampedPage()
	start = page * s.PerPage
	if start > len(s.Items) {
		start = len(s.Items)
	}
	end = min(len(s.Items), start+s.PerPage)
	return start, end
}

// Visible returns the items on the current page.
func (s PageState) Visible() []Item {
	start, end := s.Bounds()
	return s.Items[start:end]
}

// VisibleOfKind returns the items on the current page with the given kind.
func (s PageState) VisibleOfKind(kind Kind) []Item {
	return filterKind(s.Visible(), kind)
}

// Next advances one page and reports whether the page changed.
func (s *PageState) Next() bool {
	if s.Page >= s.TotalPages()-1 {
		return false
	}
	s.Page++
	return true
}

// Prev goes back one page and reports whether the page changed.
func (s *PageState) Prev() bool {
	if s.Page <= 0 {
		return false
	}
	s.Page--
	return true
}

func (s PageState) clampedPage() int {
	switch total := s.TotalPages(); {
	case s.Page < 0:
		return 0
	case s.Page >= total:
		return total - 1
	default:
		return s.Page
	}
}
