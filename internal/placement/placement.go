// Package placement converts editor field geometry, placed against a fixed
// A4 reference frame, into the page-relative representation the signing
// provider expects.
package placement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nurpe/crm-contracts/internal/model"
)

// Reference page dimensions in points (A4). All stored field geometry is
// relative to this frame regardless of the zoom the editor rendered at.
const (
	PageWidth  = 595.0
	PageHeight = 842.0
)

const minRelSize = 0.01

// Rect is a normalized field box: x, y in [0,1], w, h in [0.01,1].
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Area is a Rect pinned to a concrete 1-based page number.
type Area struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Page int     `json:"page"`
}

// Normalize converts a pixel position and size into page-relative
// coordinates. Out-of-range inputs are clamped rather than rejected; the
// returned bool reports whether clamping changed anything, so callers can
// surface fields placed mostly off-page.
func Normalize(pos model.Position, size model.Size) (Rect, bool) {
	rect := Rect{
		X: pos.X / PageWidth,
		Y: pos.Y / PageHeight,
		W: size.Width / PageWidth,
		H: size.Height / PageHeight,
	}
	clamped := Rect{
		X: clamp(rect.X, 0, 1),
		Y: clamp(rect.Y, 0, 1),
		W: clamp(rect.W, minRelSize, 1),
		H: clamp(rect.H, minRelSize, 1),
	}
	return clamped, clamped != rect
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExpandPages parses a page expression ("1", "1-3", "1,3,5") into the list
// of page numbers it denotes. Tokens expand left to right; no deduplication
// or sorting is applied, so "3,1-2" yields [3 1 2].
func ExpandPages(expr string) ([]int, error) {
	var pages []int
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("empty page token in %q", expr)
		}
		if start, end, ok := strings.Cut(token, "-"); ok {
			from, err := strconv.Atoi(strings.TrimSpace(start))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q: %w", token, err)
			}
			to, err := strconv.Atoi(strings.TrimSpace(end))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q: %w", token, err)
			}
			if from > to {
				return nil, fmt.Errorf("invalid page range %q: start after end", token)
			}
			for page := from; page <= to; page++ {
				pages = append(pages, page)
			}
			continue
		}
		page, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q: %w", token, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// ValidatePages reports whether expr is a well-formed page expression with
// only positive page numbers.
func ValidatePages(expr string) error {
	pages, err := ExpandPages(expr)
	if err != nil {
		return err
	}
	for _, page := range pages {
		if page < 1 {
			return fmt.Errorf("page numbers are 1-based, got %d", page)
		}
	}
	return nil
}

// ExternalFieldType maps the editor's field vocabulary onto the provider's
// smaller one. Unrecognized types fall back to "text".
func ExternalFieldType(t model.FieldType) string {
	switch t {
	case model.FieldTypeSignature:
		return "signature"
	case model.FieldTypeInitials:
		return "initials"
	case model.FieldTypeDate:
		return "date"
	case model.FieldTypeCheckbox:
		return "checkbox"
	default:
		return "text"
	}
}
