// Package assemblyvoting implements the assembly voting module inside the
// governance context.
//
// The module registers members, manages agenda items and runs one voting
// session per agenda item. Session and agenda statuses follow a time-driven
// state machine that is reconciled on every read and write path and by a
// background closer, so stored state converges even when nobody asks. Votes
// are unique per member and agenda item and may be changed while the session
// is open. Domain events leave through an outbox relayed by the worker.
package assemblyvoting
