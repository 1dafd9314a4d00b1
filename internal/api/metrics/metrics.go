// Package metrics defines the gateway's own Prometheus metrics. HTTP request
// metrics come from echoprometheus; these cover the gate's decisions.
//
// All collectors register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// GateRejectionsTotal counts requests the gate turned away.
// Labels:
//   - stage: last stage passed before the rejection (e.g. "correlated", "rate_checked")
//   - reason: error kind ("unauthorized", "forbidden", "too_many_requests", "bad_request", "internal")
var GateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_rejections_total",
		Help:      "Total number of requests rejected by the gate, by stage and reason.",
	},
	[]string{"stage", "reason"},
)

// AuthOutcomesTotal counts results of the public auth operations.
// Labels:
//   - operation: "login", "register", "forgot_password", "clean"
//   - result: "success" or "failure"
var AuthOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_outcomes_total",
		Help:      "Total number of auth operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// RateLimitDecisionsTotal counts limiter verdicts.
// Label:
//   - result: "allowed", "limited" or "error"
var RateLimitDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Total number of rate limiter decisions, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts bearer token checks.
// Label:
//   - result: "valid", "expired", "invalid" or "missing"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// AuditEventsDroppedTotal counts audit events lost to a full dispatcher shard.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped because the queue was full.",
	},
)
