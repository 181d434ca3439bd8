// Package telemetry creates the OpenTelemetry instruments shared by the rsa
// and ocsp packages. Instruments come from the global meter provider, so they
// are no-ops until the host application installs one.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Scope is the instrumentation scope name used for every meter.
const Scope = "github.com/coinbase/cb-hazmat-go"

// Meter returns the meter for the named subsystem, e.g. "rsa".
func Meter(subsystem string) metric.Meter {
	return otel.Meter(Scope + "/" + subsystem)
}

// Counter creates an Int64Counter, falling back to a no-op counter when the
// provider refuses the instrument.
func Counter(m metric.Meter, name, description string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(description))
	if err != nil || c == nil {
		return noop.Int64Counter{}
	}
	return c
}
