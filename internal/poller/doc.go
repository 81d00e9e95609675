// Package poller implements the order status poll session for OrderPulse.
//
// This package is internal to OrderPulse and handles the repeated fetching
// of a single order's status until it reaches a terminal state. Each
// session applies exponential backoff with jitter, enforces a bounded
// attempt budget, and supports cooperative cancellation.
//
// The main components are:
//
//   - [Client]: HTTP client for the Order Service with error classification
//   - [Session]: Per-order poll session state machine
//   - [Backoff]: Exponential backoff schedule with jitter and ceiling
//   - [Observation]: Outcome of a single status request
//   - [Result]: Terminal outcome of a session
//
// Users of the orderpulse library should not need to interact with this
// package directly. Configuration is done through the main orderpulse
// package.
package poller
