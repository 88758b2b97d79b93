//go:build js && wasm

package hostbridge

import (
	"errors"
	"syscall/js"
)

var errMissingCommand = errors.New("missing command")

// Export installs the bridge as a global object on the page:
//
//	await vidcoord.call(":CLICK:", "120", "48")  // '["ok",":CLICK:",{...}]'
//	vidcoord.version()
//
// call returns a Promise because commands may wait on DOM events, which
// cannot fire while a Go callback blocks the JS event loop.
func Export(name string, b *Bridge) js.Func {
	call := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return FormatResponse("", nil, errMissingCommand)
		}
		command := args[0].String()
		rest := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			rest = append(rest, a.String())
		}

		var handler js.Func
		handler = js.FuncOf(func(this js.Value, p []js.Value) any {
			resolve := p[0]
			go func() {
				defer handler.Release()
				resolve.Invoke(b.Call(command, rest))
			}()
			return nil
		})
		return js.Global().Get("Promise").New(handler)
	})

	version := js.FuncOf(func(this js.Value, args []js.Value) any {
		return b.Version()
	})

	js.Global().Set(name, map[string]any{
		"call":    call,
		"version": version,
	})
	return call
}
