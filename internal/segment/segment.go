// Package segment partitions multi-page bundles into contiguous per-employee
// runs of pages and materializes each run as its own document.
package segment

// Segment is a contiguous run of 1-based pages attributed to one employee.
// An empty EmployeeID means no id was detected for the run.
type Segment struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Pages      []int  `json:"pages"`
}

// Identified reports whether the segment carries an employee id.
func (s Segment) Identified() bool {
	return s.EmployeeID != ""
}

// Group partitions pages by detected id, where ids[i] is the id found on
// page i+1 ("" for none). A page whose id differs from the current run starts
// a new run; pages without an id join the current run. Leading undetected
// pages are merged into the first identified run.
func Group(ids []string) []Segment {
	var (
		segments []Segment
		current  *Segment
	)

	for i, id := range ids {
		page := i + 1

		if current == nil || (id != "" && id != current.EmployeeID) {
			segments = append(segments, Segment{EmployeeID: id})
			current = &segments[len(segments)-1]
		}
		current.Pages = append(current.Pages, page)
	}

	if len(segments) > 1 && !segments[0].Identified() {
		next := segments[1]
		next.Pages = append(segments[0].Pages, next.Pages...)
		segments = append([]Segment{next}, segments[2:]...)
	}

	return segments
}

// PerPage yields one segment per page, carrying each page's own id.
func PerPage(ids []string) []Segment {
	segments := make([]Segment, len(ids))
	for i, id := range ids {
		segments[i] = Segment{EmployeeID: id, Pages: []int{i + 1}}
	}
	return segments
}

// ShouldSplit reports whether more than one segment carries an employee id.
// With one identified run (or none) the bundle stays whole.
func ShouldSplit(segments []Segment) bool {
	identified := 0
	for _, s := range segments {
		if s.Identified() {
			identified++
		}
	}
	return identified > 1
}
