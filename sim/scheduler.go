// sim/scheduler.go
package sim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reactor-sim/reactor-sim/sim/trace"
)

// State is the phase the scheduler loop is in.
type State int

const (
	StateIdle       State = iota // not started
	StateWaiting                 // blocked on the physical clock gate
	StateDraining                // popping the events of the current tag
	StateExecuting               // running the reaction queue
	StateReclaiming              // releasing payloads of the finished round
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateDraining:
		return "draining"
	case StateExecuting:
		return "executing"
	case StateReclaiming:
		return "reclaiming"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Scheduler is the single-threaded event loop of a reactor program. It holds
// the logical clock, both queues and the payload pools; nothing is shared
// between Scheduler values.
//
// Only Stop may be called from another goroutine. Everything else, including
// the reaction callbacks, runs on the goroutine calling Run (or Start/Step).
type Scheduler struct {
	RunID string

	cfg   SchedulerConfig
	clock PhysicalClock
	gate  *Gate

	startTime int64
	stopTime  int64 // Forever when no stop time is configured
	current   Tag
	state     State
	ranRound  bool
	wrapped   bool

	eventQ    *EventQueue
	reactionQ *ReactionQueue
	pool      eventPool
	nextSeq   int64

	triggers     []*Trigger
	presentPorts []*Trigger

	// StartTimeStep, if set, runs at the beginning of every round after port
	// presence has been cleared.
	StartTimeStep func()

	stopRequested atomic.Bool
	observers     []Observer

	// Trace is nil unless tracing is enabled.
	Trace   *trace.SimulationTrace
	Metrics *Metrics
}

// NewScheduler creates a scheduler. A nil clock selects the system clock.
func NewScheduler(cfg SchedulerConfig, clock PhysicalClock) *Scheduler {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("sim: invalid scheduler config: %v", err))
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	return &Scheduler{
		RunID:     uuid.NewString(),
		cfg:       cfg,
		clock:     clock,
		gate:      NewGate(clock),
		stopTime:  Forever,
		eventQ:    NewEventQueue(),
		reactionQ: NewReactionQueue(),
		Metrics:   NewMetrics(),
	}
}

// AddTriggers registers the program's triggers. Timers, startup and shutdown
// triggers must be registered to fire; other kinds are accepted for
// bookkeeping. Must be called before Start.
func (s *Scheduler) AddTriggers(triggers ...*Trigger) {
	if s.state != StateIdle {
		panic("sim: AddTriggers called after Start")
	}
	s.triggers = append(s.triggers, triggers...)
}

// EnableTrace starts collecting a trace at the given configuration.
func (s *Scheduler) EnableTrace(config trace.TraceConfig) *trace.SimulationTrace {
	if !config.Enabled() {
		s.Trace = nil
		return nil
	}
	s.Trace = trace.NewSimulationTrace(config)
	s.Trace.RunID = s.RunID
	return s.Trace
}

// Observe adds an observer notified of every round and reaction.
func (s *Scheduler) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// CurrentTag returns the current logical tag.
func (s *Scheduler) CurrentTag() Tag { return s.current }

// StartTime returns the physical instant the run started at.
func (s *Scheduler) StartTime() int64 { return s.startTime }

// State returns the phase of the scheduler loop.
func (s *Scheduler) State() State { return s.state }

// Pending returns the number of events waiting in the event queue.
func (s *Scheduler) Pending() int { return s.eventQ.Len() }

// Stop asks the scheduler to terminate. A blocked wait is interrupted and no
// new round starts. Safe for concurrent use.
func (s *Scheduler) Stop() {
	s.stopRequested.Store(true)
	s.gate.Interrupt()
}

// Run starts the scheduler, executes rounds until termination and wraps up.
func (s *Scheduler) Run(ctx context.Context) *Metrics {
	s.Start()
	for s.Step(ctx) {
	}
	s.Wrapup()
	return s.Metrics
}

// Start fixes the start tag at the current physical time and arms timers and
// startup triggers.
func (s *Scheduler) Start() {
	if s.state != StateIdle {
		panic("sim: scheduler started twice")
	}
	s.startTime = s.clock.Now()
	s.current = Tag{Time: s.startTime}
	if s.cfg.StopAfter > 0 {
		s.stopTime = Tag{Time: s.startTime}.Delay(s.cfg.StopAfter).Time
	}
	for _, t := range s.triggers {
		switch t.Kind {
		case KindTimer:
			// The first firing is at microstep 0 even for a zero offset.
			first := s.current
			if t.Offset > 0 {
				first = s.current.Delay(t.Offset)
			}
			s.push(first, t, nil)
		case KindStartup:
			s.push(s.current, t, nil)
		}
	}
	s.state = StateWaiting
	logrus.Infof("[run %s] started at %d, stop after %v, keepalive=%v, fast=%v",
		s.RunID, s.startTime, s.cfg.StopAfter, s.cfg.KeepAlive, s.cfg.Fast)
}

// Step waits for and executes the next round. It returns false once the
// scheduler has terminated: the queue ran empty (without keepalive), the stop
// time was reached, Stop was called or ctx was cancelled.
func (s *Scheduler) Step(ctx context.Context) bool {
	switch s.state {
	case StateIdle:
		panic("sim: Step called before Start")
	case StateTerminated:
		return false
	}
	if s.stopRequested.Load() || ctx.Err() != nil {
		return s.terminate("stop requested")
	}

	head := s.eventQ.Peek()
	for {
		target := Forever
		if head == nil {
			if !s.cfg.KeepAlive {
				return s.terminate("event queue empty")
			}
		} else {
			target = head.tag.Time
		}
		bound := min(target, s.stopTime)

		res := WaitReached
		if head == nil || !s.cfg.Fast {
			s.state = StateWaiting
			res = s.gate.WaitUntil(ctx, bound)
		}
		if res == WaitReached && bound == target {
			break
		}

		// Physical time did not reach the head's time.
		if newHead := s.eventQ.Peek(); newHead != head {
			head = newHead
			continue
		}
		if s.stopRequested.Load() || ctx.Err() != nil {
			return s.terminate("interrupted")
		}
		if res == WaitReached {
			// The stop time lies before the next event.
			if s.current.Time < s.stopTime {
				s.current = Tag{Time: s.stopTime}
			}
			return s.terminate("stop time reached")
		}
	}

	s.runRound(head.tag)

	if s.current.Time >= s.stopTime {
		return s.terminate("stop time reached")
	}
	if s.stopRequested.Load() {
		return s.terminate("stop requested")
	}
	return true
}

// Wrapup runs the shutdown round (if the program has shutdown triggers),
// releases payloads of events that will never be delivered and finalises the
// metrics. It is safe to call more than once.
func (s *Scheduler) Wrapup() {
	if s.state == StateIdle {
		return
	}
	s.state = StateTerminated
	if s.wrapped {
		return
	}
	s.wrapped = true

	var shutdown []*Trigger
	for _, t := range s.triggers {
		if t.Kind == KindShutdown {
			shutdown = append(shutdown, t)
		}
	}
	if len(shutdown) > 0 {
		tag := s.current
		if s.ranRound {
			tag = s.current.Delay(0)
		}
		for _, t := range shutdown {
			s.push(tag, t, nil)
		}
		s.runRound(tag)
		s.state = StateTerminated
	}

	for e := s.eventQ.Pop(); e != nil; e = s.eventQ.Pop() {
		if e.payload != nil {
			e.payload.release()
			s.Metrics.PayloadsReleased++
		}
		s.pool.recycle(e)
	}

	s.Metrics.FinalTag = s.current
	s.Metrics.ElapsedLogical = s.current.Since(s.startTime)
	s.Metrics.ElapsedPhysical = time.Duration(s.clock.Now() - s.startTime)
	logrus.Infof("[run %s] ended at tag %s after %d rounds", s.RunID, s.current, s.Metrics.Rounds)
}

func (s *Scheduler) terminate(reason string) bool {
	s.state = StateTerminated
	logrus.Debugf("[tag %s] terminating: %s", s.current, reason)
	return false
}

// schedule inserts an event for t after the given total delay.
func (s *Scheduler) schedule(t *Trigger, delay time.Duration, payload *Payload) Handle {
	if payload != nil {
		payload.take()
	}
	if delay < 0 {
		logrus.Warnf("[tag %s] rejected schedule of %s with negative delay %v", s.current, t, delay)
		s.Metrics.SchedulesRejected++
		if payload != nil {
			payload.release()
			s.Metrics.PayloadsReleased++
		}
		return 0
	}
	return s.push(s.current.Delay(delay), t, payload)
}

func (s *Scheduler) push(tag Tag, t *Trigger, payload *Payload) Handle {
	e := s.pool.get()
	s.nextSeq++
	e.tag = tag
	e.seq = s.nextSeq
	e.trigger = t
	e.payload = payload
	s.eventQ.Push(e)
	s.Metrics.EventsScheduled++
	return Handle(e.seq)
}

// runRound executes every event at tag and the reactions they trigger.
func (s *Scheduler) runRound(tag Tag) {
	if s.ranRound && !s.current.Before(tag) {
		panic(fmt.Sprintf("sim: tag went backwards or repeated: %s after %s", tag, s.current))
	}
	s.current = tag
	s.ranRound = true
	s.startTimeStep()
	for _, o := range s.observers {
		o.RoundStarted(tag)
	}

	s.state = StateDraining
	events := 0
	for e := s.eventQ.Peek(); e != nil && e.tag == s.current; e = s.eventQ.Peek() {
		s.eventQ.Pop()
		events++
		t := e.trigger
		for _, r := range t.reactions {
			s.reactionQ.Push(r)
		}
		if t.Period > 0 {
			s.schedule(t, t.Period, nil)
		}
		t.payload = e.payload
		if e.payload != nil {
			e.payload.deliver()
		}
		s.pool.file(e)
	}
	logrus.Debugf("[tag %s] delivered %d events, %d reactions ready", s.current, events, s.reactionQ.Len())

	s.state = StateExecuting
	executed := 0
	for r := s.reactionQ.Pop(); r != nil; r = s.reactionQ.Pop() {
		executed += s.invoke(r)
	}
	s.reactionQ.Reset()

	s.state = StateReclaiming
	released := s.pool.reclaim()

	s.Metrics.Rounds++
	s.Metrics.EventsDelivered += events
	s.Metrics.PayloadsReleased += released
	s.Metrics.MaxMicrostep = max(s.Metrics.MaxMicrostep, tag.Microstep)

	stats := RoundStats{
		Tag:              tag,
		Elapsed:          tag.Time - s.startTime,
		Events:           events,
		Reactions:        executed,
		PayloadsReleased: released,
	}
	if s.Trace != nil {
		s.Trace.RecordRound(trace.RoundRecord{
			Elapsed:          stats.Elapsed,
			Microstep:        tag.Microstep,
			Events:           events,
			Reactions:        executed,
			PayloadsReleased: released,
		})
	}
	for _, o := range s.observers {
		o.RoundFinished(stats)
	}
}

// startTimeStep clears port values so that every port reads as absent until
// a reaction sets it at the new tag.
func (s *Scheduler) startTimeStep() {
	for i, p := range s.presentPorts {
		p.clear()
		s.presentPorts[i] = nil
	}
	s.presentPorts = s.presentPorts[:0]
	if s.StartTimeStep != nil {
		s.StartTimeStep()
	}
}

// invoke runs r, preceded by its deadline-violation handlers when its
// deadline has passed. It returns the number of reaction bodies executed.
func (s *Scheduler) invoke(r *Reaction) int {
	executed := 0
	missed := false
	if r.Deadline > 0 {
		if now := s.clock.Now(); now > s.current.Time+int64(r.Deadline) {
			missed = true
			s.Metrics.DeadlineMisses++
			logrus.Warnf("[tag %s] reaction %s missed its deadline of %v by %v",
				s.current, r, r.Deadline, time.Duration(now-s.current.Time)-r.Deadline)
			if h := r.violation; h != nil {
				for _, hr := range h.reactions {
					s.call(hr, false, true)
					s.Metrics.HandlerInvocations++
					executed++
				}
			}
		}
	}
	s.call(r, missed, false)
	return executed + 1
}

// call executes one reaction body and queues the reactions of the ports it set.
func (s *Scheduler) call(r *Reaction, missed, handler bool) {
	logrus.Debugf("[tag %s] executing %s", s.current, r)
	rc := &ReactionContext{sched: s, reaction: r}
	r.fn(rc)
	rc.done = true
	s.Metrics.ReactionsExecuted++

	for _, port := range rc.produced {
		for _, downstream := range port.reactions {
			s.reactionQ.Push(downstream)
		}
	}

	if s.Trace != nil {
		s.Trace.RecordReaction(trace.ReactionRecord{
			Elapsed:        s.current.Time - s.startTime,
			Microstep:      s.current.Microstep,
			Reaction:       r.Name,
			Priority:       r.Priority,
			DeadlineMissed: missed,
			Handler:        handler,
		})
	}
	for _, o := range s.observers {
		o.ReactionInvoked(s.current, r, missed)
	}
}
