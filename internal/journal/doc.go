// Package journal records submission decisions in SQLite so they can be
// replayed later to check that evaluation is deterministic.
//
// Each entry keeps the exact form and responses that were evaluated,
// their content digests, the decision reached and the time it was
// reached. Entries are append-only and ordered by seq, a logical clock
// assigned on insert. The decision time only pins the validator clock on
// replay.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// The journal is an audit trail for the evaluator. It is not a store of
// record for form results.
package journal
