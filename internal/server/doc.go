// Package server provides the read-only HTTP status API for OrderPulse.
//
// This package is internal to OrderPulse and serves the latest observation
// per tracked order as JSON, plus a Server-Sent Events stream of updates.
// It is used by the `orderpulse serve` command; library users observe
// sessions through callbacks instead.
//
// The server never proxies or mutates Order Service state; it only exposes
// what the local store has observed.
package server
