//go:build js && wasm

// Package browser drives an HTMLVideoElement of the host page. Blocking calls
// wait on DOM events, so they must run outside JS callbacks.
package browser

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"syscall/js"

	"github.com/vidcoord/vidcoord/internal/frame"
	"github.com/vidcoord/vidcoord/pkg/core"
)

// ErrNoElement is returned when the given value is not a DOM element
var ErrNoElement = errors.New("video element not found")

// waitEvent blocks until el fires one of the named events or ctx is done.
// It returns the name of the event that fired.
func waitEvent(ctx context.Context, el js.Value, start func(), names ...string) (string, error) {
	fired := make(chan string, 1)
	funcs := make([]js.Func, len(names))
	for i, name := range names {
		funcs[i] = js.FuncOf(func(this js.Value, args []js.Value) any {
			select {
			case fired <- name:
			default:
			}
			return nil
		})
		el.Call("addEventListener", name, funcs[i])
	}
	defer func() {
		for i, name := range names {
			el.Call("removeEventListener", name, funcs[i])
			funcs[i].Release()
		}
	}()

	start()
	select {
	case name := <-fired:
		return name, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Video wraps a video element and a scratch canvas for grabbing frames.
type Video struct {
	el     js.Value
	canvas js.Value
	ctx2d  js.Value

	// serializes canvas use
	mu sync.Mutex
}

// New wraps el, which must already have its metadata loaded.
func New(el js.Value) (*Video, error) {
	if el.IsUndefined() || el.IsNull() {
		return nil, ErrNoElement
	}
	canvas := js.Global().Get("document").Call("createElement", "canvas")
	ctx2d := canvas.Call("getContext", "2d", map[string]any{"willReadFrequently": true})
	if ctx2d.IsNull() {
		return nil, fmt.Errorf("2d canvas context unavailable")
	}
	return &Video{el: el, canvas: canvas, ctx2d: ctx2d}, nil
}

func (v *Video) Dimensions() core.VideoDimensions {
	return core.VideoDimensions{
		Width:  v.el.Get("videoWidth").Int(),
		Height: v.el.Get("videoHeight").Int(),
	}
}

// Duration returns NaN for streams without a finite length.
func (v *Video) Duration() float64 {
	d := v.el.Get("duration").Float()
	if math.IsInf(d, 0) {
		return math.NaN()
	}
	return d
}

func (v *Video) Position() float64 {
	return v.el.Get("currentTime").Float()
}

func (v *Video) Seek(ctx context.Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.el.Call("pause")
	_, err := waitEvent(ctx, v.el, func() {
		v.el.Set("currentTime", t)
	}, "seeked")
	return err
}

func (v *Video) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims := v.Dimensions()
	if !dims.Valid() {
		return nil, fmt.Errorf("video has no decoded frame")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.canvas.Get("width").Int() != dims.Width || v.canvas.Get("height").Int() != dims.Height {
		v.canvas.Set("width", dims.Width)
		v.canvas.Set("height", dims.Height)
	}
	v.ctx2d.Call("drawImage", v.el, 0, 0, dims.Width, dims.Height)
	data := v.ctx2d.Call("getImageData", 0, 0, dims.Width, dims.Height).Get("data")

	img := image.NewRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	if n := js.CopyBytesToGo(img.Pix, data); n != len(img.Pix) {
		return nil, fmt.Errorf("short frame read: %d of %d bytes", n, len(img.Pix))
	}
	return img, nil
}

// Opener loads sources into a single page element.
type Opener struct {
	el js.Value
}

// NewOpener uses the element with the given id.
func NewOpener(elementID string) (*Opener, error) {
	el := js.Global().Get("document").Call("getElementById", elementID)
	if el.IsNull() || el.IsUndefined() {
		return nil, fmt.Errorf("%w: #%s", ErrNoElement, elementID)
	}
	return &Opener{el: el}, nil
}

// Open points the element at source, usually a blob URL, and waits for its
// metadata.
func (o *Opener) Open(ctx context.Context, source string) (frame.Video, error) {
	name, err := waitEvent(ctx, o.el, func() {
		o.el.Set("preload", "auto")
		o.el.Set("src", source)
		o.el.Call("load")
	}, "loadedmetadata", "error")
	if err != nil {
		return nil, err
	}
	if name == "error" {
		return nil, fmt.Errorf("video element could not load %q", source)
	}
	return New(o.el)
}
