package model

type FieldType string

const (
	FieldTypeSignature FieldType = "signature"
	FieldTypeInitials  FieldType = "initials"
	FieldTypeName      FieldType = "name"
	FieldTypeDate      FieldType = "date"
	FieldTypeText      FieldType = "text"
	FieldTypeInput     FieldType = "input"
	FieldTypeCheckbox  FieldType = "checkbox"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Field is a typed marker placed on one or more pages of a document.
// Position and Size are in points against the 595x842 (A4) reference frame
// the editor places against; Pages is a page expression such as "1", "1-3"
// or "1,3,5".
type Field struct {
	ID               int64
	DocumentID       int64
	SignerID         *int64
	FieldType        FieldType
	Pages            string
	Position         Position
	Size             Size
	HorizontalAdjust int
	VerticalAdjust   int
	Content          *string
}

// FieldWithRefs carries the denormalized names the editor shows next to a
// field in the list view.
type FieldWithRefs struct {
	Field
	DocumentFilename string
	SignerName       *string
}
