package loginflow

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Captcha is the arithmetic human challenge: two single-digit operands and
// an add or subtract operator. Subtraction may produce a negative answer.
type Captcha struct {
	A  int
	B  int
	Op string
}

// NewCaptcha generates a challenge with operands in 1..9.
func NewCaptcha(rng *rand.Rand) Captcha {
	op := "+"
	if rng.Intn(2) == 0 {
		op = "-"
	}
	return Captcha{
		A:  1 + rng.Intn(9),
		B:  1 + rng.Intn(9),
		Op: op,
	}
}

// Question renders the challenge for display.
func (c Captcha) Question() string {
	return fmt.Sprintf("%d %s %d", c.A, c.Op, c.B)
}

// Expected returns the correct answer.
func (c Captcha) Expected() int {
	if c.Op == "+" {
		return c.A + c.B
	}
	return c.A - c.B
}

// Check reports whether the input matches the expected answer. Anything
// that does not parse as an integer fails.
func (c Captcha) Check(input string) bool {
	answer, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return answer == c.Expected()
}
