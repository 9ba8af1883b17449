// Package metrics exposes install activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/leeforge/essentials/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "essentials"

// Recorder implements installer.TransitionRecorder and the install observer
// used by the service package.
type Recorder struct {
	transitions     *prometheus.CounterVec
	installs        *prometheus.CounterVec
	installDuration *prometheus.HistogramVec
	states          *prometheus.GaugeVec
}

// NewRecorder registers the install metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plugin_state_transitions_total",
				Help:      "Total number of plugin install state transitions",
			},
			[]string{"from", "to"},
		),
		installs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plugin_installs_total",
				Help:      "Total number of install actions by plugin and outcome",
			},
			[]string{"plugin", "outcome"},
		),
		installDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plugin_install_duration_seconds",
				Help:      "Duration of install actions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		states: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plugin_state",
				Help:      "Current install state rank of each plugin",
			},
			[]string{"plugin"},
		),
	}
}

// ObserveTransition counts a state change and updates the plugin's gauge.
func (r *Recorder) ObserveTransition(pluginID string, from, to plugin.InstallState) {
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
	r.states.WithLabelValues(pluginID).Set(float64(to))
}

// ObserveInstall records one install action.
func (r *Recorder) ObserveInstall(pluginID, outcome string, elapsed time.Duration) {
	r.installs.WithLabelValues(pluginID, outcome).Inc()
	r.installDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// SetStates seeds the state gauge from a plugin set, typically after
// persisted states were restored.
func (r *Recorder) SetStates(set *plugin.Set) {
	for _, d := range set.All() {
		r.states.WithLabelValues(d.ID).Set(float64(d.State))
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
