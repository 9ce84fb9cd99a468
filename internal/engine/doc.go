// Package engine is the state-progression core of the observer game.
//
// Every transition is a reducer call on Session: player actions through
// Apply, the periodic heartbeat through Tick and settled narrative requests
// through Complete. Reducers never perform I/O; they return Effects listing
// the narrative requests to run and the domain events to record. Engine is the
// runtime that owns a Session on one goroutine and carries those effects out.
package engine
