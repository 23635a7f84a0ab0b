package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Window class set on every timer window.
const (
	ClassInstance = "floattimer"
	ClassName     = "Floattimer"
)

// URLProperty holds the front-end page a window should display.
const URLProperty = "_FLOATTIMER_URL"

// WindowParams describes a top-level window to create.
type WindowParams struct {
	Title string
	URL   string

	X, Y   int
	Placed bool // X/Y are a user-requested position

	Width, Height       int
	MinWidth, MinHeight int

	Borderless  bool
	Transparent bool
	AlwaysOnTop bool
	Resizable   bool
	NoShadow    bool
}

// CreateWindow creates and maps a top-level window. The window selects
// StructureNotify so the caller can attach ConfigureNotify and
// DestroyNotify handlers; attach is called after the window exists but
// before it is mapped.
func (c *Connection) CreateWindow(p WindowParams, attach func(xproto.Window)) (xproto.Window, error) {
	if err := validateGeometry(p); err != nil {
		return 0, err
	}

	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	depth := screen.RootDepth
	visual := screen.RootVisual
	// Value list order follows the bit positions of the mask (low to high).
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwEventMask)
	values := []uint32{0, 0, uint32(xproto.EventMaskStructureNotify | xproto.EventMaskExposure)}

	if p.Transparent {
		if argb, ok := c.argbVisual(); ok {
			if cmap, err := c.createColormap(argb); err == nil {
				depth = 32
				visual = argb
				mask |= xproto.CwColormap
				values = append(values, uint32(cmap))
			}
		}
	}

	x, y := 0, 0
	if p.Placed {
		x, y = p.X, p.Y
	}

	err = xproto.CreateWindowChecked(
		conn,
		depth,
		wid,
		c.Root,
		int16(x), int16(y),
		uint16(p.Width), uint16(p.Height),
		0, // border_width
		xproto.WindowClassInputOutput,
		visual,
		mask,
		values,
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	if err := c.setHints(wid, p); err != nil {
		xproto.DestroyWindow(conn, wid)
		return 0, err
	}

	if attach != nil {
		attach(wid)
	}

	if err := xproto.MapWindowChecked(conn, wid).Check(); err != nil {
		xevent.Detach(c.XUtil, wid)
		xproto.DestroyWindow(conn, wid)
		return 0, fmt.Errorf("failed to map window: %w", err)
	}
	return wid, nil
}

// validateGeometry rejects values the CreateWindow request cannot carry:
// positions are INT16 and sizes CARD16 on the wire.
func validateGeometry(p WindowParams) error {
	if p.Placed {
		if p.X < math.MinInt16 || p.X > math.MaxInt16 || p.Y < math.MinInt16 || p.Y > math.MaxInt16 {
			return fmt.Errorf("window position (%d,%d) is out of range", p.X, p.Y)
		}
	}
	if p.Width < 1 || p.Width > math.MaxUint16 || p.Height < 1 || p.Height > math.MaxUint16 {
		return fmt.Errorf("window size %dx%d is out of range", p.Width, p.Height)
	}
	if p.MinWidth < 0 || p.MinWidth > math.MaxUint16 || p.MinHeight < 0 || p.MinHeight > math.MaxUint16 {
		return fmt.Errorf("window minimum size %dx%d is out of range", p.MinWidth, p.MinHeight)
	}
	return nil
}

func (c *Connection) setHints(wid xproto.Window, p WindowParams) error {
	xu := c.XUtil

	if err := icccm.WmNameSet(xu, wid, p.Title); err != nil {
		return fmt.Errorf("failed to set WM_NAME: %w", err)
	}
	if err := ewmh.WmNameSet(xu, wid, p.Title); err != nil {
		return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
	}
	if err := icccm.WmClassSet(xu, wid, &icccm.WmClass{Instance: ClassInstance, Class: ClassName}); err != nil {
		return fmt.Errorf("failed to set WM_CLASS: %w", err)
	}
	if err := icccm.WmProtocolsSet(xu, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}

	hints := &icccm.NormalHints{
		Flags:     icccm.SizeHintPMinSize | icccm.SizeHintPSize,
		Width:     uint(p.Width),
		Height:    uint(p.Height),
		MinWidth:  uint(p.MinWidth),
		MinHeight: uint(p.MinHeight),
	}
	if p.Placed {
		hints.Flags |= icccm.SizeHintUSPosition | icccm.SizeHintPPosition
		hints.X, hints.Y = p.X, p.Y
	}
	if !p.Resizable {
		hints.Flags |= icccm.SizeHintPMaxSize
		hints.MinWidth, hints.MinHeight = uint(p.Width), uint(p.Height)
		hints.MaxWidth, hints.MaxHeight = uint(p.Width), uint(p.Height)
	}
	if err := icccm.WmNormalHintsSet(xu, wid, hints); err != nil {
		return fmt.Errorf("failed to set WM_NORMAL_HINTS: %w", err)
	}

	if p.Borderless {
		if err := motif.WmHintsSet(xu, wid, &motif.Hints{
			Flags:      motif.HintDecorations,
			Decoration: motif.DecorationNone,
		}); err != nil {
			return fmt.Errorf("failed to set _MOTIF_WM_HINTS: %w", err)
		}
	}
	if p.AlwaysOnTop {
		// Initial state; the window manager reads it when the window maps.
		if err := ewmh.WmStateSet(xu, wid, []string{"_NET_WM_STATE_ABOVE"}); err != nil {
			return fmt.Errorf("failed to set _NET_WM_STATE: %w", err)
		}
	}
	if p.NoShadow {
		// Honored by picom/compton.
		if err := xprop.ChangeProp32(xu, wid, "_COMPTON_SHADOW", "CARDINAL", 0); err != nil {
			return fmt.Errorf("failed to set _COMPTON_SHADOW: %w", err)
		}
	}
	if p.URL != "" {
		if err := xprop.ChangeProp(xu, wid, 8, URLProperty, "UTF8_STRING", []byte(p.URL)); err != nil {
			return fmt.Errorf("failed to set %s: %w", URLProperty, err)
		}
	}
	return nil
}

// DestroyWindow destroys a window created by CreateWindow.
func (c *Connection) DestroyWindow(wid xproto.Window) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), wid).Check()
}

// ResizeWindow sets the inner size of a window.
func (c *Connection) ResizeWindow(wid xproto.Window, width, height int) error {
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		wid,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)},
	).Check()
}

// OuterPosition returns the top-left corner of the window including any
// frame the window manager reparented it into.
func (c *Connection) OuterPosition(wid xproto.Window) (int, int, error) {
	geom, err := xwindow.New(c.XUtil, wid).DecorGeometry()
	if err != nil {
		return 0, 0, err
	}
	return geom.X(), geom.Y(), nil
}

// InnerSize returns the client area size of the window.
func (c *Connection) InnerSize(wid xproto.Window) (int, int, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(wid)).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(geom.Width), int(geom.Height), nil
}

// GetActiveWindow returns the focused window per _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// IsDeleteRequest reports whether a WM_PROTOCOLS client message asks the
// window to close.
func (c *Connection) IsDeleteRequest(msgType xproto.Atom, data []uint32) bool {
	protocols, err := xprop.Atm(c.XUtil, "WM_PROTOCOLS")
	if err != nil || msgType != protocols || len(data) == 0 {
		return false
	}
	deleteWindow, err := xprop.Atm(c.XUtil, "WM_DELETE_WINDOW")
	if err != nil {
		return false
	}
	return xproto.Atom(data[0]) == deleteWindow
}

// argbVisual finds a 32-bit TrueColor visual for per-pixel transparency.
func (c *Connection) argbVisual() (xproto.Visualid, bool) {
	for _, depth := range c.XUtil.Screen().AllowedDepths {
		if depth.Depth != 32 {
			continue
		}
		for _, v := range depth.Visuals {
			if v.Class == xproto.VisualClassTrueColor {
				return v.VisualId, true
			}
		}
	}
	return 0, false
}

func (c *Connection) createColormap(visual xproto.Visualid) (xproto.Colormap, error) {
	conn := c.XUtil.Conn()
	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, c.Root, visual).Check(); err != nil {
		return 0, err
	}
	return cmap, nil
}
