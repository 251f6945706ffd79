package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reactor-sim/reactor-sim/sim"
)

// RoundObserver implements sim.Observer by emitting spans.
type RoundObserver struct {
	tracer trace.Tracer
	runCtx context.Context
	run    trace.Span
	round  trace.Span
}

var _ sim.Observer = (*RoundObserver)(nil)

// NewRoundObserver starts the run span for runID. Call Finish after the
// scheduler has wrapped up.
func NewRoundObserver(ctx context.Context, tracer trace.Tracer, runID, program string) *RoundObserver {
	runCtx, span := tracer.Start(ctx, "reactor.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("program", program),
		),
	)
	return &RoundObserver{tracer: tracer, runCtx: runCtx, run: span}
}

// RoundStarted implements sim.Observer.
func (o *RoundObserver) RoundStarted(tag sim.Tag) {
	_, o.round = o.tracer.Start(o.runCtx, "reactor.round",
		trace.WithAttributes(
			attribute.Int64("tag.time", tag.Time),
			attribute.Int64("tag.microstep", int64(tag.Microstep)),
		),
	)
}

// ReactionInvoked implements sim.Observer.
func (o *RoundObserver) ReactionInvoked(_ sim.Tag, r *sim.Reaction, deadlineMissed bool) {
	if o.round == nil {
		return
	}
	o.round.AddEvent("reaction", trace.WithAttributes(
		attribute.String("reaction.name", r.Name),
		attribute.Int("reaction.priority", r.Priority),
		attribute.Bool("reaction.deadline_missed", deadlineMissed),
	))
}

// RoundFinished implements sim.Observer.
func (o *RoundObserver) RoundFinished(st sim.RoundStats) {
	if o.round == nil {
		return
	}
	o.round.SetAttributes(
		attribute.Int64("round.elapsed", st.Elapsed),
		attribute.Int("round.events", st.Events),
		attribute.Int("round.reactions", st.Reactions),
		attribute.Int("round.payloads_released", st.PayloadsReleased),
	)
	o.round.End()
	o.round = nil
}

// Finish records the run totals and ends the run span. Deadline misses mark
// the run span with an error status.
func (o *RoundObserver) Finish(m *sim.Metrics) {
	o.run.SetAttributes(
		attribute.Int("run.rounds", m.Rounds),
		attribute.Int("run.reactions", m.ReactionsExecuted),
		attribute.Int("run.deadline_misses", m.DeadlineMisses),
		attribute.Int64("run.elapsed_logical_ns", m.ElapsedLogical.Nanoseconds()),
		attribute.Int64("run.elapsed_physical_ns", m.ElapsedPhysical.Nanoseconds()),
	)
	if m.DeadlineMisses > 0 {
		o.run.SetStatus(codes.Error, "deadline missed")
	} else {
		o.run.SetStatus(codes.Ok, "")
	}
	o.run.End()
}
