package diag

import (
	"fmt"
	"go/token"
)

// ICE is an internal compiler error: an invariant an earlier phase must have
// guaranteed does not hold. It travels as a panic value up to the unit boundary.
type ICE struct {
	Pos token.Position
	Msg string
}

func (e *ICE) Error() string {
	if !e.Pos.IsValid() {
		return "internal compiler error: " + e.Msg
	}

	return fmt.Sprintf("%s: internal compiler error: %s", e.Pos, e.Msg)
}

// CatchICE runs fn and turns an [ICE] panic into an error. Other panics pass through.
func CatchICE(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		ice, ok := r.(*ICE)
		if !ok {
			panic(r)
		}

		err = ice
	}()

	fn()
	return nil
}
