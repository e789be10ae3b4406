package filter

import (
	"fmt"
	"strings"
	"time"

	custom_error "toolroom/pkg/errors"
)

const DateLayout = "2006-01-02"

// Query narrows a working set. Zero fields do not filter.
type Query struct {
	Text string
	Date *time.Time
}

func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == "" && q.Date == nil
}

// Fields tells Apply how to look into a T.
type Fields[T any] struct {
	Text func(item T) []string
	// Date returns the timestamp compared against Query.Date, and false when
	// the item has none.
	Date func(item T) (time.Time, bool)
}

// Apply returns the items matching q in their original order. The input is
// never modified.
func Apply[T any](items []T, q Query, f Fields[T], loc *time.Location) []T {
	if loc == nil {
		loc = time.Local
	}

	out := make([]T, 0, len(items))
	if q.IsEmpty() {
		return append(out, items...)
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	for _, item := range items {
		if needle != "" && !matchesText(f.Text(item), needle) {
			continue
		}
		if q.Date != nil && !matchesDate(f.Date, item, *q.Date, loc) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesText(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func matchesDate[T any](date func(T) (time.Time, bool), item T, want time.Time, loc *time.Location) bool {
	if date == nil {
		return false
	}
	ts, ok := date(item)
	if !ok {
		return false
	}
	y1, m1, d1 := ts.In(loc).Date()
	y2, m2, d2 := want.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ParseDate reads a calendar date in loc.
func ParseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return nil, custom_error.NewValidationError("date", fmt.Sprintf("expected YYYY-MM-DD, got %q", value))
	}
	return &d, nil
}
