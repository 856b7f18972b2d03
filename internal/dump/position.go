package dump

import (
	"encoding"
	"fmt"
	"go/token"
	"strconv"
	"strings"
)

// Position is a source position written as "file:line:column" or "file:line".
type Position token.Position

var (
	_ encoding.TextUnmarshaler = (*Position)(nil)
	_ encoding.TextMarshaler   = Position{}
)

// Position converts back to the go/token form.
func (p Position) Position() token.Position {
	return token.Position(p)
}

// UnmarshalText for setting values with dumps.
func (p *Position) UnmarshalText(b []byte) error {
	text := string(b)
	if text == "" {
		*p = Position{}
		return nil
	}

	parts := strings.Split(text, ":")
	var nums []int
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}

	if len(nums) == 0 {
		return fmt.Errorf("invalid position %q: want file:line[:column]", text)
	}

	res := Position{
		Filename: strings.Join(parts, ":"),
		Line:     nums[0],
	}
	if len(nums) > 1 {
		res.Column = nums[1]
	}
	if res.Filename == "" || res.Line <= 0 || res.Column < 0 {
		return fmt.Errorf("invalid position %q: want file:line[:column]", text)
	}

	*p = res
	return nil
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.Position().IsValid() {
		return []byte{}, nil
	}

	return []byte(p.Position().String()), nil
}
