// Package sim provides the single-threaded scheduler of the reactor runtime.
//
// # Reading Guide
//
// Start with these files to understand the scheduler kernel:
//   - tag.go: superdense logical time (instant, microstep) and the delay rule
//   - trigger.go, reaction.go: the program model and the ReactionContext API
//   - scheduler.go: the round loop (wait, drain, execute, reclaim, terminate)
//
// # Execution Model
//
// A round processes every event sharing one tag. The scheduler waits on the
// Gate until physical time reaches the tag (unless running fast), pops all
// events of the tag, queues the reactions of their triggers and executes them
// in ascending priority index. Reactions may set output ports, whose
// reactions join the same round, and schedule actions for later tags. After
// the last reaction returns, payloads delivered in the round are released.
//
// Rounds run in strictly increasing tag order. Within a round a reaction runs
// at most once.
//
// # Key Types
//
//   - PhysicalClock: time source for pacing and deadlines (SystemClock, ManualClock)
//   - Gate: interruptible wait until a physical instant
//   - EventQueue / ReactionQueue: tag-ordered and priority-ordered heaps
//   - Payload: exclusively owned message value, released exactly once
//   - Observer: round and reaction notifications (see sim/telemetry)
//
// Programs are usually assembled from a YAML table by sim/program; traces are
// recorded by sim/trace and persisted by sim/store.
package sim
