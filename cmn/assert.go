package cmn

import "fmt"

// Assert panics when cond is false. Reserved for invariants that indicate a
// bug in this package, never for caller-triggerable conditions (those return
// a typed *Error instead).
func Assert(cond bool) {
	if !cond {
		panic("cmn: assertion failed")
	}
}

// AssertMsg is Assert with a formatted panic message.
func AssertMsg(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("cmn: assertion failed: %s", fmt.Sprintf(format, args...)))
	}
}

// AssertNoErr panics on a non-nil error coming from a code path that is
// supposed to be infallible (e.g. writing into a pre-sized buffer).
func AssertNoErr(err error) {
	if err != nil {
		panic(fmt.Sprintf("cmn: unexpected error: %v", err))
	}
}
