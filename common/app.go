package common

// App metadata.
const (
	AppName    = "NetMan"
	AppVersion = "0.3.0"
	AppAuthor  = "Aravindh Goutham"
)

// PrometheusNamespace - Prometheus metrics namespace.
const PrometheusNamespace = "netman"
