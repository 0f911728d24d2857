// Package port provides widget abstractions for input defaults
package port

// Widget is the core-side view of an input's default-value editor. The
// presentation layer owns rendering; the core only needs the current value
// and a serializable state that survives a save/load round trip.
type Widget interface {
	// Value returns the widget's current value, used when the input is not
	// connected.
	Value() any

	// Data returns the widget's serializable state.
	Data() (any, error)

	// SetData restores the widget from previously serialized state.
	SetData(data any) error
}

// Widget positions relative to the port label.
const (
	WidgetPosUnder   = "under"
	WidgetPosBesides = "besides"
)

// WidgetTypeValue identifies the built-in plain value holder.
const WidgetTypeValue = "value"

// WidgetSpec identifies a widget for persistence: which builder to use and
// where the presentation layer places it.
type WidgetSpec struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// Builder constructs a widget of a given type for the restore path.
type Builder func() Widget

// ValueWidget is the built-in widget: a mutable holder for one value. Its
// serialized state is the value itself.
type ValueWidget struct {
	v any
}

// NewValueWidget creates a value widget with an initial value.
func NewValueWidget(v any) *ValueWidget { return &ValueWidget{v: v} }

// Value returns the held value.
func (w *ValueWidget) Value() any { return w.v }

// Set replaces the held value.
func (w *ValueWidget) Set(v any) { w.v = v }

// Data returns the held value as serializable state.
func (w *ValueWidget) Data() (any, error) { return w.v, nil }

// SetData restores the held value.
func (w *ValueWidget) SetData(data any) error {
	w.v = data
	return nil
}
