//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/vidcoord/vidcoord/internal/engine"
	"github.com/vidcoord/vidcoord/internal/media/browser"
	"github.com/vidcoord/vidcoord/pkg/hostbridge"
)

// module defs - set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	// GlobalName is the object the bridge is installed under.
	GlobalName string = "vidcoord"
	// DefaultVideoElement is used when the page does not name its element.
	DefaultVideoElement string = "vidcoord-video"
)

func consoleError(msg string, err error) {
	js.Global().Get("console").Call("error", fmt.Sprintf("%s: %v", msg, err))
}

// videoElementID reads window.vidcoordConfig.videoElement.
func videoElementID() string {
	cfg := js.Global().Get(GlobalName + "Config")
	if cfg.Type() == js.TypeObject {
		if id := cfg.Get("videoElement"); id.Type() == js.TypeString && id.String() != "" {
			return id.String()
		}
	}
	return DefaultVideoElement
}

func main() {
	opener, err := browser.NewOpener(videoElementID())
	if err != nil {
		consoleError("vidcoord: cannot start", err)
		return
	}

	e, err := engine.New(engine.Options{
		Version: CurrentVersion,
		Opener:  opener,
	})
	if err != nil {
		consoleError("vidcoord: cannot start", err)
		return
	}
	e.Logger().Info("Engine started", "version", CurrentVersion, "buildDate", BuildDate)

	hostbridge.Export(GlobalName, e.Bridge())

	// let the page know it can start calling
	if ready := js.Global().Get(GlobalName + "Ready"); ready.Type() == js.TypeFunction {
		ready.Invoke(CurrentVersion)
	}

	select {}
}
