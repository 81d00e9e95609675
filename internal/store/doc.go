// Package store provides storage and pub/sub functionality for order
// observations.
//
// This package is internal to OrderPulse and manages the in-memory storage
// of the latest poll outcome per order. It implements a publish-subscribe
// pattern so the status API can stream updates to connected clients.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Observation]: Storage representation of an order's latest status
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the system).
//
// Users of the orderpulse library should not need to interact with this
// package directly. Storage is managed internally by the tracker.
package store
