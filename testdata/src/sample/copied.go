package sample

import "github.com/sirkon/covgate/covrt"

func Copied() { // want `sample::copied.go::Copied uses 6 coverage counters`
	covrt.Counter(5)
//line inlined_callee.go:1
	covrt.Counter(9)
}
