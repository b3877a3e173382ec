package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the acquisition metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeTimeout  = "timeout"
	OutcomeExpired  = "expired"
	OutcomeDenied   = "denied"
	OutcomeRejected = "rejected"
	OutcomeNetwork  = "network"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// Registry holds every cogauth metric. It is separate from the default
// registerer so textfile exports contain no Go runtime metrics.
var Registry = prometheus.NewRegistry()

var (
	CredentialAcquisitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cogauth_credential_acquisitions_total",
		Help: "Total number of credential acquisitions grouped by provider method and outcome",
	}, []string{"method", "outcome"})
	DeviceCodePolls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cogauth_device_code_polls_total",
		Help: "Total number of device code token polls grouped by result",
	}, []string{"result"})
	DeviceCodeSlowDowns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cogauth_device_code_slow_downs_total",
		Help: "Total number of slow_down responses received while polling",
	})
	// Buckets span the typical interval (5s) up to the 15 minute ceiling.
	DeviceCodeFlowDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cogauth_device_code_flow_duration_seconds",
		Help:    "Duration of device code flows from handshake to terminal outcome",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 900},
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(CredentialAcquisitions)
	Registry.MustRegister(DeviceCodePolls)
	Registry.MustRegister(DeviceCodeSlowDowns)
	Registry.MustRegister(DeviceCodeFlowDuration)
}

// WriteTextfile writes the current metric values in the text exposition
// format to path, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
