package internaldefs

import (
	"github.com/sportsfed/memberauth"
)

// CounterDef binds a metric identifier to its stable exported name.
type CounterDef struct {
	ID   memberauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram identifier to its stable exported name.
type HistogramDef struct {
	ID   memberauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a fixed render order.
var CounterDefs = []CounterDef{
	{ID: memberauth.MetricLoginSuccess, Name: "memberauth_login_success_total", Help: "Successful login attempts."},
	{ID: memberauth.MetricLoginFailure, Name: "memberauth_login_failure_total", Help: "Failed login attempts."},
	{ID: memberauth.MetricRegisterSuccess, Name: "memberauth_register_success_total", Help: "Successful registrations."},
	{ID: memberauth.MetricRegisterFailure, Name: "memberauth_register_failure_total", Help: "Failed registrations."},
	{ID: memberauth.MetricRestoreSuccess, Name: "memberauth_restore_success_total", Help: "Sessions restored from stored credentials."},
	{ID: memberauth.MetricRestoreSelfHeal, Name: "memberauth_restore_self_heal_total", Help: "Restores that cleared credentials the server no longer accepts."},
	{ID: memberauth.MetricProfileRefreshSuccess, Name: "memberauth_profile_refresh_success_total", Help: "Successful profile re-fetches."},
	{ID: memberauth.MetricProfileRefreshFailure, Name: "memberauth_profile_refresh_failure_total", Help: "Failed profile re-fetches."},
	{ID: memberauth.MetricLogout, Name: "memberauth_logout_total", Help: "Logout operations."},
	{ID: memberauth.MetricGuardAllowed, Name: "memberauth_guard_allowed_total", Help: "Route guard decisions that allowed access."},
	{ID: memberauth.MetricGuardRedirected, Name: "memberauth_guard_redirected_total", Help: "Route guard decisions that redirected the caller."},
	{ID: memberauth.MetricDraftStageAdvanced, Name: "memberauth_draft_stage_advanced_total", Help: "Registration draft stage transitions."},
	{ID: memberauth.MetricDraftValidationFailed, Name: "memberauth_draft_validation_failed_total", Help: "Draft stage submissions rejected by validation."},
	{ID: memberauth.MetricDraftSubmitted, Name: "memberauth_draft_submitted_total", Help: "Completed registration drafts."},
	{ID: memberauth.MetricDraftAbandoned, Name: "memberauth_draft_abandoned_total", Help: "Abandoned registration drafts."},
}

// HistogramDefs lists every exported histogram in a fixed render order.
var HistogramDefs = []HistogramDef{
	{ID: memberauth.MetricAuthorizeLatency, Name: "memberauth_authorize_latency_seconds", Help: "Route guard evaluation latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's fixed buckets, in
// seconds, as Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with instrument-name safe
// suffixes for exporters that cannot carry an le label.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the engine's
// fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms require.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
