// Package model defines the data shared by the form-state engine: the
// per-form attributes (flat default values and field constraints), the
// mutable state snapshot (initial values, errors, validated flags and list
// item keys), the change records produced when two snapshots are compared,
// and the serializable submission result exchanged across a server round
// trip. Field names follow the formpath grammar (`tasks[0].content`) and every
// value map is flat: nested defaults are flattened before they reach a State.
// Validation messages are a tagged union so control markers (skipped checks,
// checks deferred to the server) never travel as magic strings.
package model
