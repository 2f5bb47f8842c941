// Package editor holds the in-memory field set for one document editing
// session and turns pointer gestures into field mutations. One session
// belongs to one user; callers drive it from a single goroutine.
package editor

import (
	"github.com/google/uuid"

	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/placement"
)

// Field is an editor-local field keyed by a client-generated token. Geometry
// is in page-intrinsic points against the 595x842 reference frame, never in
// screen pixels.
type Field struct {
	ID       string
	SignerID string
	Type     model.FieldType
	Page     int
	Position model.Position
	Size     model.Size
}

// ChangeFunc receives the full field list after every mutation; the caller
// decides when to push it to the persistence API.
type ChangeFunc func(fields []Field)

var defaultSizes = map[model.FieldType]model.Size{
	model.FieldTypeSignature: {Width: 150, Height: 50},
	model.FieldTypeInitials:  {Width: 60, Height: 40},
	model.FieldTypeName:      {Width: 120, Height: 25},
	model.FieldTypeDate:      {Width: 100, Height: 25},
	model.FieldTypeText:      {Width: 120, Height: 25},
	model.FieldTypeInput:     {Width: 120, Height: 25},
	model.FieldTypeCheckbox:  {Width: 20, Height: 20},
}

type dragState struct {
	fieldID string
	offsetX float64
	offsetY float64
}

type Editor struct {
	fields     []Field
	selectedID string
	signerID   string
	fieldType  model.FieldType
	page       int
	zoom       float64
	drag       *dragState
	onChange   ChangeFunc
}

func New(onChange ChangeFunc) *Editor {
	return &Editor{
		fieldType: model.FieldTypeSignature,
		page:      1,
		zoom:      1,
		onChange:  onChange,
	}
}

func (e *Editor) SelectSigner(signerID string)      { e.signerID = signerID }
func (e *Editor) SelectFieldType(t model.FieldType) { e.fieldType = t }
func (e *Editor) SelectedField() string             { return e.selectedID }
func (e *Editor) Page() int                         { return e.page }

func (e *Editor) SetZoom(zoom float64) {
	if zoom > 0 {
		e.zoom = zoom
	}
}

// SetPage switches the displayed page without touching any field.
func (e *Editor) SetPage(page int) {
	if page >= 1 {
		e.page = page
	}
}

// ClickAt creates a field of the selected type centered on the clicked
// point, owned by the selected signer. Screen coordinates are converted to
// page units through the current zoom. Without a selected signer the click
// does nothing and returns the empty string.
func (e *Editor) ClickAt(screenX, screenY float64) string {
	if e.signerID == "" {
		return ""
	}
	size := defaultSizes[e.fieldType]
	if size.Width == 0 {
		size = defaultSizes[model.FieldTypeText]
	}
	x := screenX/e.zoom - size.Width/2
	y := screenY/e.zoom - size.Height/2

	field := Field{
		ID:       uuid.NewString(),
		SignerID: e.signerID,
		Type:     e.fieldType,
		Page:     e.page,
		Position: clampToPage(model.Position{X: x, Y: y}, size),
		Size:     size,
	}
	e.fields = append(e.fields, field)
	e.selectedID = field.ID
	e.notify()
	return field.ID
}

// Select marks a field as the current selection. Unknown ids are ignored.
func (e *Editor) Select(fieldID string) {
	if _, ok := e.find(fieldID); ok {
		e.selectedID = fieldID
	}
}

// BeginDrag starts dragging a field, capturing where inside its box the
// pointer grabbed it. Dragging implies selection. A second BeginDrag while
// one is active replaces it.
func (e *Editor) BeginDrag(fieldID string, screenX, screenY float64) bool {
	idx, ok := e.find(fieldID)
	if !ok {
		return false
	}
	field := e.fields[idx]
	e.drag = &dragState{
		fieldID: fieldID,
		offsetX: screenX/e.zoom - field.Position.X,
		offsetY: screenY/e.zoom - field.Position.Y,
	}
	e.selectedID = fieldID
	return true
}

// DragTo moves the dragged field so the grab point follows the pointer,
// keeping the whole box on the page.
func (e *Editor) DragTo(screenX, screenY float64) {
	if e.drag == nil {
		return
	}
	idx, ok := e.find(e.drag.fieldID)
	if !ok {
		e.drag = nil
		return
	}
	pos := model.Position{
		X: screenX/e.zoom - e.drag.offsetX,
		Y: screenY/e.zoom - e.drag.offsetY,
	}
	e.fields[idx].Position = clampToPage(pos, e.fields[idx].Size)
	e.notify()
}

func (e *Editor) EndDrag() { e.drag = nil }

// Delete removes a field; deleting the selected field clears the selection.
func (e *Editor) Delete(fieldID string) bool {
	idx, ok := e.find(fieldID)
	if !ok {
		return false
	}
	e.fields = append(e.fields[:idx], e.fields[idx+1:]...)
	if e.selectedID == fieldID {
		e.selectedID = ""
	}
	if e.drag != nil && e.drag.fieldID == fieldID {
		e.drag = nil
	}
	e.notify()
	return true
}

// FieldsOnPage returns the fields rendered on the given page.
func (e *Editor) FieldsOnPage(page int) []Field {
	var out []Field
	for _, f := range e.fields {
		if f.Page == page {
			out = append(out, f)
		}
	}
	return out
}

// Fields returns a snapshot of all fields in placement order.
func (e *Editor) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

func (e *Editor) find(fieldID string) (int, bool) {
	for i, f := range e.fields {
		if f.ID == fieldID {
			return i, true
		}
	}
	return 0, false
}

func (e *Editor) notify() {
	if e.onChange != nil {
		e.onChange(e.Fields())
	}
}

func clampToPage(pos model.Position, size model.Size) model.Position {
	maxX := placement.PageWidth - size.Width
	maxY := placement.PageHeight - size.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	if pos.X < 0 {
		pos.X = 0
	} else if pos.X > maxX {
		pos.X = maxX
	}
	if pos.Y < 0 {
		pos.Y = 0
	} else if pos.Y > maxY {
		pos.Y = maxY
	}
	return pos
}
