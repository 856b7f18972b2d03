package sample

import "github.com/sirkon/covgate/covrt"

const limit = 3

func Plain() { // want `sample::sample.go::Plain uses 2 coverage counters`
	covrt.Counter(0)
	if cond() {
		covrt.Counter(1)
	}
	covrt.Expression(4)
}

func cond() bool { return limit > 2 }

//coverage:off
func Quiet() { // want `sample::sample.go::Quiet is not instrumented: CVG030: CoverageOff`
	f := func() { // want `sample::sample.go::Quiet::\{closure#0\} is not instrumented: CVG030: CoverageOff`
		covrt.Counter(0)
	}
	f()

	//coverage:on
	g := func() { // want `sample::sample.go::Quiet::\{closure#1\} uses 1 coverage counters`
		covrt.Counter(0)
	}
	g()
}

//go:nosplit
func Asm(x int) int // want `sample::sample.go::Asm is not instrumented: CVG020: Naked`

func (*T) Hit() { // want `sample::sample.go::impl T::T.Hit uses 4 coverage counters`
	covrt.Counter(3)
}

func Dynamic(id uint32) {
	covrt.Counter(id) // want `counter marker id must be a constant, the call is ignored`
}

//coverage:maybe // want `malformed coverage directive`
func Malformed() {}
