package event

import "time"

// nowNano returns the current wall-clock time in nanoseconds. It is a
// var-wrapped function (see clockNow in event.go) so tests can substitute a
// deterministic sequence.
func nowNano() int64 { return time.Now().UnixNano() }
