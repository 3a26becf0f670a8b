package play

import (
	"time"

	"github.com/abhisek/phasegate/internal/engine"
)

// tickMsg is sent every second to settle timers and advance playback.
type tickMsg time.Time

// reflectionGradedMsg carries the result of an asynchronous reflection
// submission.
type reflectionGradedMsg struct {
	Outcome engine.Outcome
	Err     error
}

// exitedMsg is sent once the controller has handed the session off.
type exitedMsg struct {
	Summary engine.Summary
	Err     error
}
