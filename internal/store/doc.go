// Package store provides storage and pub/sub functionality for sensor
// states.
//
// This package is internal to shelfwatch and manages the in-memory
// storage of derived sensor states. It implements a publish-subscribe
// pattern for real-time updates to connected dashboard clients, plus a
// JSON snapshot file used to restore states across restarts.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [SensorState]: Storage representation of one sensor's state
//   - [SaveStates] / [LoadStates]: Snapshot persistence
//
// The store is designed for concurrent access with proper
// synchronization. Subscribers receive updates via channels with
// non-blocking sends (slow subscribers will miss updates rather than
// block the system).
//
// Users of the shelfwatch library should not need to interact with this
// package directly. Storage is managed internally by ShelfWatch.
package store
