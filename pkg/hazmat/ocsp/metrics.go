package ocsp

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coinbase/cb-hazmat-go/internal/telemetry"
	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
)

type ocspInstruments struct {
	requestsDecoded metric.Int64Counter
	decodeErrors    metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	inst            ocspInstruments
)

func instruments() *ocspInstruments {
	instrumentsOnce.Do(func() {
		m := telemetry.Meter("ocsp")
		inst.requestsDecoded = telemetry.Counter(m, "hazmat.ocsp.requests.decoded", "OCSP requests decoded successfully.")
		inst.decodeErrors = telemetry.Counter(m, "hazmat.ocsp.decode.errors", "OCSP decode failures by operation and error kind.")
	})
	return &inst
}

func recordDecodeError(op string, kind error) {
	k := "unknown"
	if kind != nil {
		k = kind.Error()
	}
	instruments().decodeErrors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("op", op), attribute.String("kind", k)))
}

// fail records err against op and returns it unchanged.
func fail(op string, err error) error {
	recordDecodeError(op, hazmat.KindOf(err))
	return err
}
