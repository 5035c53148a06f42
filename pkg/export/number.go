package export

import (
	"math"
	"strconv"
	"strings"
)

// num formats f in the shortest form that parses back to f. Plain decimal
// notation is used for magnitudes in [1e-6, 1e21), exponent notation with
// an unpadded exponent otherwise.
func num(f float64) string {
	if f == 0 {
		return "0"
	}
	a := math.Abs(f)
	if a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(exp)
	if n >= 0 {
		return mant + "e+" + strconv.Itoa(n)
	}
	return mant + "e" + strconv.Itoa(n)
}
