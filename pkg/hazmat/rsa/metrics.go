package rsa

import (
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/coinbase/cb-hazmat-go/internal/telemetry"
)

type rsaInstruments struct {
	keysGenerated      metric.Int64Counter
	generateAttempts   metric.Int64Counter
	validationFailures metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	inst            rsaInstruments
)

func instruments() *rsaInstruments {
	instrumentsOnce.Do(func() {
		m := telemetry.Meter("rsa")
		inst.keysGenerated = telemetry.Counter(m, "hazmat.rsa.keys.generated", "RSA private keys generated.")
		inst.generateAttempts = telemetry.Counter(m, "hazmat.rsa.generate.attempts", "Prime pairs drawn during generation, including rejected ones.")
		inst.validationFailures = telemetry.Counter(m, "hazmat.rsa.validation.failures", "Key constructions rejected as invalid.")
	})
	return &inst
}
