package fibra

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricFiberCreatedCount   = []string{"fibra", "fiber", "created", "count"}
	MetricFiberLive           = []string{"fibra", "fiber", "live"}
	MetricFiberTransferCount  = []string{"fibra", "fiber", "transfer", "count"}
	MetricFiberBodyErrorCount = []string{"fibra", "fiber", "body", "error", "count"}
	MetricFiberKillCount      = []string{"fibra", "fiber", "kill", "count"}
)

type TelemetryLabel string

var (
	LabelError     TelemetryLabel = "error"
	LabelFiberName TelemetryLabel = "fiber_name"
	LabelFiberID   TelemetryLabel = "fiber_id"
	LabelOperation TelemetryLabel = "operation"
	LabelBackend   TelemetryLabel = "backend"
	LabelState     TelemetryLabel = "state"
	LabelDuration  TelemetryLabel = "duration"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}
