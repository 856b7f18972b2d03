// Code generated by hand for tests. DO NOT EDIT.

package sample

type T struct{}

func (T) String() string { return "T" } // want `sample::zz_generated.go::impl T::T.String is not instrumented: CVG010: AutomaticallyDerived`
