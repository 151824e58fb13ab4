package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por outro backend sem alterar o cliente nem o emulador.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// Nomes das métricas emitidas pelo toolkit.
const (
	// RequestCount counts exchanges made by the client transport.
	RequestCount = "deta.request.count"
	// RequestLatency is the client exchange latency in milliseconds.
	RequestLatency = "deta.request.latency_ms"
	// EmulatorRequestCount counts requests served by the emulator.
	EmulatorRequestCount = "deta.emulator.request.count"
	// EmulatorRequestLatency is the emulator handler latency in milliseconds.
	EmulatorRequestLatency = "deta.emulator.request.latency_ms"
	// EmulatorBatchSize is the item count of each batch write received by the emulator.
	EmulatorBatchSize = "deta.emulator.batch.size"
)

// StatusClass renders an HTTP status as a tag value: "2xx", "4xx", ...
// Zero means no response and renders as "error".
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return string(rune('0'+status/100)) + "xx"
}
