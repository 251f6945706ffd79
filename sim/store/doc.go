// Package store persists scheduler run traces in SQLite.
//
// A run is identified by the scheduler's RunID. Its round and reaction
// records are stored with their recording sequence, and every query orders
// by that sequence so a loaded trace matches the recorded one exactly.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks instead of failing
//   - foreign_keys=ON: rounds and reactions belong to a run
package store
