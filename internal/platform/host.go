package platform

import "errors"

// ErrUnknownWindow is returned by a Host when an id does not name a live window.
var ErrUnknownWindow = errors.New("unknown window")

// Point is a screen position in device pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p offset by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Size is a window extent in device pixels.
type Size struct {
	Width  uint `json:"width" yaml:"width"`
	Height uint `json:"height" yaml:"height"`
}

// WindowRecord is a snapshot of a window's identity and geometry.
type WindowRecord struct {
	ID     string `json:"id"`
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
	Width  uint   `json:"width"`
	Height uint   `json:"height"`
}

// NewWindowRecord builds a record from a position and size.
func NewWindowRecord(id string, pos Point, size Size) WindowRecord {
	x, y := pos.X, pos.Y
	return WindowRecord{ID: id, X: &x, Y: &y, Width: size.Width, Height: size.Height}
}

// Position returns the saved position, if both coordinates are present.
func (r WindowRecord) Position() (Point, bool) {
	if r.X == nil || r.Y == nil {
		return Point{}, false
	}
	return Point{X: *r.X, Y: *r.Y}, true
}

// Size returns the saved inner size.
func (r WindowRecord) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Chrome describes window decoration and stacking attributes.
type Chrome struct {
	Decorations bool
	Transparent bool
	AlwaysOnTop bool
	Resizable   bool
	Shadow      bool
}

// TimerChrome is the chrome every timer window gets: borderless,
// transparent, always on top, resizable, no compositor shadow.
func TimerChrome() Chrome {
	return Chrome{
		Transparent: true,
		AlwaysOnTop: true,
		Resizable:   true,
	}
}

// EventHandler receives window events for a single window. The host calls
// it from its event-delivery goroutine.
type EventHandler interface {
	HandleResize(id string, size Size)
	HandleClose(id string)
}

// WindowSpec describes a window to create.
type WindowSpec struct {
	ID       string
	Title    string
	URL      string
	Chrome   Chrome
	Size     Size
	MinSize  Size
	Position *Point // nil lets the host place the window

	// Handler is subscribed before the window is shown.
	Handler EventHandler
}

// Host abstracts the window system that realizes timer windows.
type Host interface {
	CreateWindow(spec WindowSpec) error
	CloseWindow(id string) error
	OuterPosition(id string) (Point, error)
	InnerSize(id string) (Size, error)
	SetSize(id string, size Size) error
	ListWindows() []string
}
