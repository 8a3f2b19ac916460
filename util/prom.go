package util

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricFactory - Creates metrics registered in one registry under one namespace.
type MetricFactory struct {
	registry  *prometheus.Registry
	namespace string
}

// NewMetricFactory - Create a factory for the registry.
func NewMetricFactory(registry *prometheus.Registry, namespace string) MetricFactory {
	return MetricFactory{
		registry:  registry,
		namespace: namespace,
	}
}

// ExporterInfo - Register <namespace>_exporter_info with the version label, always 1.
func (factory MetricFactory) ExporterInfo(version string) {
	factory.Gauge("exporter", "info", "Metadata about the exporter.", prometheus.Labels{"version": version}).Set(1)
}

// Gauge - Create and register a gauge.
func (factory MetricFactory) Gauge(subsystem string, name string, help string, constLabels prometheus.Labels) prometheus.Gauge {
	metric := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   factory.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: constLabels,
	})
	factory.registry.MustRegister(metric)
	return metric
}

// GaugeVec - Create and register a labeled gauge.
func (factory MetricFactory) GaugeVec(subsystem string, name string, help string, labelNames ...string) *prometheus.GaugeVec {
	metric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: factory.namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labelNames)
	factory.registry.MustRegister(metric)
	return metric
}

// BoolValue - 1 for true, 0 for false.
func BoolValue(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
