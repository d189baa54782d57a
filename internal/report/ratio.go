package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// undefinedLiteral is how an undefined Ratio appears in JSON and text output.
const undefinedLiteral = "undefined"

// Ratio is a quotient that may be undefined because its denominator was zero.
type Ratio struct {
	Value   float64
	Defined bool
}

// Div returns num/den, or an undefined Ratio when den is zero or the
// result is not finite.
func Div(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Ratio{}
	}
	return Ratio{Value: v, Defined: true}
}

func (r Ratio) String() string {
	if !r.Defined {
		return undefinedLiteral
	}
	return fmt.Sprintf("%.4f", r.Value)
}

// Percent formats the ratio as a percentage.
func (r Ratio) Percent() string {
	if !r.Defined {
		return undefinedLiteral
	}
	return fmt.Sprintf("%.2f%%", r.Value*100)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return json.Marshal(undefinedLiteral)
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`"`+undefinedLiteral+`"`)) {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("ratio: %w", err)
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}
