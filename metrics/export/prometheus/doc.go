// Package prometheus renders memberauth metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [memberauth.Engine] and exposes an
// [http.Handler] that renders all counters and the authorize latency
// histogram. Counter names are prefixed memberauth_*_total.
//
// The exporter never registers in a global Prometheus registry; callers
// mount the Handler themselves.
package prometheus
