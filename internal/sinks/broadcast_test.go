package sinks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/spiritrise/yogacamp/internal/metrics"
	"github.com/spiritrise/yogacamp/internal/models"
)

// fakeSink answers with a fixed outcome, optionally after a delay.
type fakeSink struct {
	name  string
	out   Outcome
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Submit(ctx context.Context, _ models.Registration) Outcome {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return failed(f.name, 0, ctx.Err())
		}
	}
	o := f.out
	o.Sink = f.name
	return o
}

func okSink(name string) *fakeSink {
	return &fakeSink{name: name, out: Outcome{OK: true, Message: "Ana successfully registered for yoga camp!"}}
}

func failingSink(name string) *fakeSink {
	return &fakeSink{name: name, out: failed(name, 500, errors.New("boom"))}
}

var testReg = models.Registration{Name: "Ana", Email: "ana@example.com", ContactKey: "ana@example.com"}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": AtLeastOne, "at_least_one": AtLeastOne, " ALL ": All} {
		got, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePolicy("majority")
	assert.Error(t, err)
}

func TestBroadcastAtLeastOne(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name  string
		sinks []Sink
		ok    bool
	}{
		{"both succeed", []Sink{okSink("a"), okSink("b")}, true},
		{"one fails one succeeds", []Sink{failingSink("a"), okSink("b")}, true},
		{"both fail", []Sink{failingSink("a"), failingSink("b")}, false},
		{"no sinks", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBroadcaster(tt.sinks, AtLeastOne, time.Second, nil, zaptest.NewLogger(t))
			report := b.Broadcast(t.Context(), testReg)
			assert.Equal(t, tt.ok, report.OK)
			assert.Len(t, report.Outcomes, len(tt.sinks))
		})
	}
}

func TestBroadcastAllPolicy(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroadcaster([]Sink{okSink("a"), failingSink("b")}, All, time.Second, nil, zaptest.NewLogger(t))
	report := b.Broadcast(t.Context(), testReg)
	assert.False(t, report.OK)
	require.Len(t, report.Failures(), 1)
	assert.Equal(t, "b", report.Failures()[0].Sink)

	var de *DeliveryError
	require.ErrorAs(t, report.Failures()[0].Err, &de)
	assert.Equal(t, 500, de.Status)

	b = NewBroadcaster([]Sink{okSink("a"), okSink("b")}, All, time.Second, nil, zaptest.NewLogger(t))
	assert.True(t, b.Broadcast(t.Context(), testReg).OK)
}

func TestBroadcastCallsEverySinkOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	a, b := failingSink("a"), okSink("b")
	NewBroadcaster([]Sink{a, b}, AtLeastOne, time.Second, nil, nil).Broadcast(t.Context(), testReg)
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 1, b.calls.Load())
}

func TestBroadcastSlowSinkTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	slow := &fakeSink{name: "slow", out: Outcome{OK: true}, delay: time.Minute}
	b := NewBroadcaster([]Sink{slow, okSink("fast")}, AtLeastOne, 50*time.Millisecond, nil, zaptest.NewLogger(t))

	start := time.Now()
	report := b.Broadcast(t.Context(), testReg)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, report.OK)
	require.Len(t, report.Failures(), 1)
	assert.ErrorIs(t, report.Failures()[0].Err, context.DeadlineExceeded)
}

func TestBroadcastRunsSinksConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := &fakeSink{name: "a", out: Outcome{OK: true}, delay: 200 * time.Millisecond}
	b := &fakeSink{name: "b", out: Outcome{OK: true}, delay: 200 * time.Millisecond}
	start := time.Now()
	NewBroadcaster([]Sink{a, b}, AtLeastOne, time.Second, nil, nil).Broadcast(t.Context(), testReg)
	assert.Less(t, time.Since(start), 390*time.Millisecond)
}

func TestReportDuplicateWins(t *testing.T) {
	report := Report{Outcomes: []Outcome{
		{Sink: "a", OK: true, Message: "Ana successfully registered for yoga camp!"},
		{Sink: "b", OK: true, AlreadyRegistered: true, Message: "Ana is already registered for yoga camp"},
		{Sink: "c", Err: errors.New("down")},
	}, OK: true}
	assert.True(t, report.AlreadyRegistered())
	assert.Equal(t, "Ana is already registered for yoga camp", report.Message())
	assert.Len(t, report.Failures(), 1)
}

func TestBroadcastRecordsDeliveries(t *testing.T) {
	m := metrics.New()
	b := NewBroadcaster([]Sink{okSink("primary"), failingSink("webhook")}, AtLeastOne, time.Second, m, nil)
	b.Broadcast(t.Context(), testReg)

	assert.Equal(t, []string{"primary", "webhook"}, b.Sinks())
	n, err := testutil.GatherAndCount(m.Registry(), "yogacamp_sink_deliveries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
