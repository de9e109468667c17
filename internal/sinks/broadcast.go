package sinks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spiritrise/yogacamp/internal/metrics"
	"github.com/spiritrise/yogacamp/internal/models"
)

// DefaultTimeout bounds a single sink call.
const DefaultTimeout = 15 * time.Second

// Policy decides when a broadcast counts as successful.
type Policy string

const (
	AtLeastOne Policy = "at_least_one"
	All        Policy = "all"
)

// ParsePolicy accepts "at_least_one" (or empty) and "all".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AtLeastOne:
		return AtLeastOne, nil
	case All:
		return All, nil
	}
	return "", fmt.Errorf("unknown delivery policy %q", s)
}

// Report joins the per-sink outcomes of one broadcast.
type Report struct {
	Outcomes []Outcome
	OK       bool
}

// AlreadyRegistered is true when any accepting sink reported an existing registration.
func (r Report) AlreadyRegistered() bool {
	for _, o := range r.Outcomes {
		if o.OK && o.AlreadyRegistered {
			return true
		}
	}
	return false
}

// Message returns the first message from an accepting sink, preferring a duplicate notice.
func (r Report) Message() string {
	var first string
	for _, o := range r.Outcomes {
		if !o.OK || o.Message == "" {
			continue
		}
		if o.AlreadyRegistered {
			return o.Message
		}
		if first == "" {
			first = o.Message
		}
	}
	return first
}

// Failures returns the outcomes of sinks that did not accept the registration.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK {
			out = append(out, o)
		}
	}
	return out
}

// Broadcaster sends a registration to every sink concurrently and waits for all of them.
// There is no retry and no rollback of sinks that accepted.
type Broadcaster struct {
	sinks   []Sink
	policy  Policy
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewBroadcaster(sinks []Sink, policy Policy, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = AtLeastOne
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Broadcaster{sinks: sinks, policy: policy, timeout: timeout, metrics: m, logger: logger}
}

// Sinks returns the configured sink names in order.
func (b *Broadcaster) Sinks() []string {
	names := make([]string, len(b.sinks))
	for i, s := range b.sinks {
		names[i] = s.Name()
	}
	return names
}

func (b *Broadcaster) Broadcast(ctx context.Context, reg models.Registration) Report {
	outcomes := make([]Outcome, len(b.sinks))

	// Sinks report failure through their Outcome, so the group never cancels siblings.
	var g errgroup.Group
	for i, s := range b.sinks {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()
			o := s.Submit(sctx, reg)
			if o.Sink == "" {
				o.Sink = s.Name()
			}
			if !o.OK && o.Err == nil {
				o.Err = &DeliveryError{Sink: o.Sink, Err: fmt.Errorf("rejected")}
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, o := range outcomes {
		b.metrics.ObserveDelivery(o.Sink, o.OK)
		if o.OK {
			succeeded++
			continue
		}
		b.logger.Warn("sink delivery failed", zap.String("sink", o.Sink), zap.Error(o.Err))
	}

	report := Report{Outcomes: outcomes}
	switch b.policy {
	case All:
		report.OK = len(outcomes) > 0 && succeeded == len(outcomes)
	default:
		report.OK = succeeded > 0
	}
	if !report.OK {
		b.logger.Error("registration not delivered",
			zap.Int("succeeded", succeeded),
			zap.Int("sinks", len(outcomes)),
			zap.String("policy", string(b.policy)))
	}
	return report
}
