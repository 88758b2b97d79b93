package frame

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/vidcoord/vidcoord/internal/frame"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
