package metrics

import (
	"github.com/clycites/clygate/internal/domain/routes"
	obserrors "github.com/clycites/clygate/internal/observability/errors"
	"github.com/clycites/clygate/internal/observability/statsd"
)

// Validation outcome constants for metric tagging.
const (
	OutcomeValid    = "valid"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// GateMetric captures one edge decision for metric emission.
type GateMetric struct {
	App    string
	Class  routes.Class
	Action routes.Action
}

// EmitGateDecision emits a counter for each edge route decision, tagged
// by app profile, path classification, and resulting action.
func EmitGateDecision(sink statsd.Sink, in GateMetric) {
	if sink == nil {
		return
	}
	sink.Count("gate.decision", 1, map[string]string{
		"app":    in.App,
		"class":  in.Class.String(),
		"action": in.Action.String(),
	})
}

// EmitSessionValidation emits a counter per session validation outcome.
// Infrastructure failures (OutcomeError) carry a normalized error class.
func EmitSessionValidation(sink statsd.Sink, outcome string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	if err != nil && outcome == OutcomeError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("session.validation", 1, tags)
}
