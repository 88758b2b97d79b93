package logging

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var timeZero time.Time

func TestContextHandler_AddsAttributesPerRecord(t *testing.T) {
	var buf bytes.Buffer
	n := 0
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		n++
		return []slog.Attr{slog.Int("n", n)}
	})
	logger := slog.New(h)

	logger.Info("one")
	logger.Info("two")

	assert.Contains(t, buf.String(), "msg=one n=1")
	assert.Contains(t, buf.String(), "msg=two n=2")
}

func TestContextHandler_WithAttrsKeepsProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("mode", "capturing")}
	})

	slog.New(h).With("cmd", ":CLICK:").WithGroup("").Info("placed")
	assert.Contains(t, buf.String(), "msg=placed cmd=:CLICK: mode=capturing")
}

func TestTags(t *testing.T) {
	tags := NewTags()
	tags.Set("b", "2")
	tags.Set("a", "1")
	tags.Set("gone", "x")
	tags.Set("gone", "")

	var got []string
	for _, a := range tags.Provider()() {
		got = append(got, a.String())
	}
	assert.Equal(t, []string{"a=1", "b=2"}, got)
}

func TestTags_Concurrent(t *testing.T) {
	tags := NewTags()
	provider := tags.Provider()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tags.Set("k", "v")
				_ = provider()
			}
		}()
	}
	wg.Wait()
}
