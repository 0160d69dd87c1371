package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clycites/clygate/internal/domain/routes"
)

type recordedMetric struct {
	name  string
	value int64
	tags  map[string]string
}

type recordedTiming struct {
	name string
	d    time.Duration
	tags map[string]string
}

type fakeSink struct {
	counts  []recordedMetric
	timings []recordedTiming
}

func (f *fakeSink) Count(name string, value int64, tags map[string]string) {
	f.counts = append(f.counts, recordedMetric{name: name, value: value, tags: tags})
}

func (f *fakeSink) Timing(name string, d time.Duration, tags map[string]string) {
	f.timings = append(f.timings, recordedTiming{name: name, d: d, tags: tags})
}

func TestEmitGateDecision(t *testing.T) {
	sink := &fakeSink{}

	EmitGateDecision(sink, GateMetric{
		App:    "farm",
		Class:  routes.ClassProtected,
		Action: routes.ActionRedirectLogin,
	})

	assert.Len(t, sink.counts, 1)
	assert.Equal(t, "gate.decision", sink.counts[0].name)
	assert.Equal(t, int64(1), sink.counts[0].value)
	assert.Equal(t, map[string]string{
		"app":    "farm",
		"class":  "protected",
		"action": "redirect-login",
	}, sink.counts[0].tags)
}

func TestEmitSessionValidation(t *testing.T) {
	sink := &fakeSink{}

	EmitSessionValidation(sink, OutcomeRejected, nil)

	assert.Len(t, sink.counts, 1)
	assert.Equal(t, "session.validation", sink.counts[0].name)
	assert.Equal(t, map[string]string{"outcome": "rejected"}, sink.counts[0].tags)
}

func TestEmitSessionValidation_TagsErrorClass(t *testing.T) {
	sink := &fakeSink{}

	EmitSessionValidation(sink, OutcomeError, errors.New("redis down"))

	assert.Len(t, sink.counts, 1)
	assert.NotEmpty(t, sink.counts[0].tags["error_class"])
	assert.Equal(t, "error", sink.counts[0].tags["outcome"])
}

func TestEmitHTTPRequest(t *testing.T) {
	sink := &fakeSink{}

	EmitHTTPRequest(sink, "GET", 200, 120*time.Millisecond)

	assert.Len(t, sink.timings, 1)
	assert.Equal(t, "http.request", sink.timings[0].name)
	assert.Equal(t, 120*time.Millisecond, sink.timings[0].d)
	assert.Equal(t, map[string]string{"method": "GET", "status": "200"}, sink.timings[0].tags)
}

func TestEmitters_NilSinkIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitGateDecision(nil, GateMetric{App: "farm"})
		EmitSessionValidation(nil, OutcomeValid, nil)
		EmitHTTPRequest(nil, "GET", 200, time.Second)
	})
}
