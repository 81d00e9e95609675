// Package orderpulse tracks marketplace orders against a remote Order
// Service until they reach a terminal state.
//
// The Order Service owns the order lifecycle; orderpulse only observes it.
// Each tracked order gets its own poll session: an immediate first status
// request, then exponential backoff with jitter between attempts, capped
// at a ceiling and reset to the base whenever the observed status changes.
// Sessions stop on a terminal status (completed or failed), on a rejected
// order id, on cancellation, or when their attempt budget runs out.
//
// Basic usage:
//
//	tracker, err := orderpulse.New(
//	    orderpulse.WithBaseURL("https://api.example.com"),
//	    orderpulse.WithMaxAttempts(20),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracker.Close()
//
//	session, err := tracker.Track(ctx, "abc123")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Cancel()
//
//	result, err := session.Wait(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	switch result.State {
//	case orderpulse.StateCompleted:
//	    fmt.Println("invoice:", result.Invoice.SignedURL)
//	case orderpulse.StateExhausted:
//	    fmt.Println("still processing, check back later")
//	default:
//	    fmt.Println("order", result.State)
//	}
//
// The orderpulse CLI wraps the same machinery for shell use; see
// cmd/orderpulse.
package orderpulse
