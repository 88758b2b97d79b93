// Package hostbridge is the boundary between the host page and the engine.
// Every call is routed through the dispatcher and answered with a JSON array:
// ["ok", command], ["ok", command, result] or ["error", command, message].
package hostbridge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vidcoord/vidcoord/internal/dispatcher"
)

// TimestampCommand is answered by the bridge itself with the current UTC time
// in nanoseconds.
const TimestampCommand = ":TIMESTAMP:"

// Bridge answers host calls.
type Bridge struct {
	version    string
	dispatcher *dispatcher.Dispatcher
	now        func() time.Time
}

// New creates a Bridge. A nil dispatcher answers every command with an error.
func New(version string, d *dispatcher.Dispatcher) *Bridge {
	if version == "" {
		version = "No version set"
	}
	return &Bridge{version: version, dispatcher: d, now: time.Now}
}

// Version returns the engine version.
func (b *Bridge) Version() string {
	return b.version
}

// Call dispatches command with args. A command of the form
// ":NAME:|a|b" is split into the command and its arguments when no handler
// matches the full string.
func (b *Bridge) Call(command string, args []string) string {
	if command == TimestampCommand {
		return FormatResponse(command, strconv.FormatInt(b.now().UTC().UnixNano(), 10), nil)
	}
	if b.dispatcher == nil {
		return FormatResponse(command, nil, fmt.Errorf("no handler registered"))
	}

	dispatchCommand := command
	if !b.dispatcher.HasHandler(command) {
		parts := strings.Split(command, "|")
		if b.dispatcher.HasHandler(parts[0]) {
			dispatchCommand = parts[0]
			args = append(parts[1:], args...)
		}
	}
	if !b.dispatcher.HasHandler(dispatchCommand) {
		return FormatResponse(command, nil, fmt.Errorf("no handler registered"))
	}

	result, err := b.dispatcher.Dispatch(dispatcher.Event{
		Command:   dispatchCommand,
		Args:      args,
		Timestamp: b.now(),
	})
	return FormatResponse(dispatchCommand, result, err)
}

// FormatResponse encodes a dispatch result for the host.
func FormatResponse(command string, result any, err error) string {
	reply := []any{"ok", command}
	switch {
	case err != nil:
		reply = []any{"error", command, err.Error()}
	case result != nil:
		reply = append(reply, result)
	}
	data, mErr := json.Marshal(reply)
	if mErr != nil {
		data, _ = json.Marshal([]any{"error", command, fmt.Sprintf("encode result: %v", mErr)})
	}
	return string(data)
}
