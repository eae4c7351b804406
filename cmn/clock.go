package cmn

import "time"

// Clock is the time seam threaded through the wheel and the allocator
// sweeper so tests can inject a fake clock instead of sleeping real
// wall-time ("replace global singletons with explicit context
// objects threaded through constructors").
type Clock interface {
	NowMs() int64
}

type realClock struct{}

func (realClock) NowMs() int64 { return time.Now().UnixMilli() }

// RealClock is the production Clock backed by time.Now().
var RealClock Clock = realClock{}
