package encoding

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotFitted       = errors.New("encoder is not fitted")
	ErrInvalidFit      = errors.New("invalid encoder fit parameters")
	ErrUnknownCategory = errors.New("unknown category")
)

// ValueEncoder maps a raw scalar onto the encoder's bounded output range.
type ValueEncoder interface {
	Transform(v float64) float64
	// Floor returns the minimum output value, used to pad empty sequences.
	Floor() float64
}

// RangeEncoder normalizes a value against corpus-wide summary statistics.
// Transform and Inverse are exact algebraic inverses of each other.
type RangeEncoder struct {
	mean   float64
	min    float64
	max    float64
	outMin float64
	outMax float64
}

func NewRangeEncoder(mean, min, max, outMin, outMax float64) (*RangeEncoder, error) {
	if max <= min {
		return nil, fmt.Errorf("%w: max=%v must be greater than min=%v", ErrInvalidFit, max, min)
	}
	if outMax <= outMin {
		return nil, fmt.Errorf("%w: output_max=%v must be greater than output_min=%v", ErrInvalidFit, outMax, outMin)
	}

	return &RangeEncoder{
		mean:   mean,
		min:    min,
		max:    max,
		outMin: outMin,
		outMax: outMax,
	}, nil
}

func (e *RangeEncoder) Transform(v float64) float64 {
	return (v-e.mean)/(e.max-e.min)*(e.outMax-e.outMin) + e.offset()
}

func (e *RangeEncoder) Inverse(v float64) float64 {
	return (v - e.offset()) / (e.outMax - e.outMin) * (e.max - e.min) + e.mean
}

func (e *RangeEncoder) Floor() float64 {
	return e.outMin
}

// offset centers the mean on the middle of the output range.
func (e *RangeEncoder) offset() float64 {
	return e.outMin + (e.outMax-e.outMin)/2
}

// CyclicalEncoder maps periodic values (day of month) onto a sine wave so
// the last day of a period sits next to the first instead of across the range.
type CyclicalEncoder struct {
	periodMin float64
	periodMax float64
	amplitude float64
}

func NewCyclicalEncoder(periodMin, periodMax, amplitude float64) (*CyclicalEncoder, error) {
	if periodMax <= periodMin {
		return nil, fmt.Errorf("%w: period_max=%v must be greater than period_min=%v", ErrInvalidFit, periodMax, periodMin)
	}
	if amplitude <= 0 {
		return nil, fmt.Errorf("%w: amplitude must be greater than zero", ErrInvalidFit)
	}

	return &CyclicalEncoder{
		periodMin: periodMin,
		periodMax: periodMax,
		amplitude: amplitude,
	}, nil
}

func (e *CyclicalEncoder) Transform(v float64) float64 {
	return math.Sin(2*math.Pi*v/(e.periodMax-e.periodMin))*e.amplitude + e.amplitude
}

func (e *CyclicalEncoder) Floor() float64 {
	return 0
}

// CategoryEncoder one-hot encodes values over a fixed vocabulary.
// Unknown values at encode time are an error, never a silent zero vector.
type CategoryEncoder struct {
	index  map[string]int
	values []string
}

func NewCategoryEncoder(vocabulary []string) (*CategoryEncoder, error) {
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("%w: vocabulary is empty", ErrInvalidFit)
	}

	index := make(map[string]int, len(vocabulary))
	values := make([]string, 0, len(vocabulary))
	for _, value := range vocabulary {
		if value == "" {
			return nil, fmt.Errorf("%w: vocabulary contains an empty value", ErrInvalidFit)
		}
		if _, exists := index[value]; exists {
			return nil, fmt.Errorf("%w: duplicate vocabulary value %q", ErrInvalidFit, value)
		}
		index[value] = len(values)
		values = append(values, value)
	}

	return &CategoryEncoder{
		index:  index,
		values: values,
	}, nil
}

func (e *CategoryEncoder) Transform(value string) ([]float64, error) {
	if e == nil || len(e.values) == 0 {
		return nil, ErrNotFitted
	}

	position, ok := e.index[value]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not in the %d-value vocabulary", ErrUnknownCategory, value, len(e.values))
	}

	out := make([]float64, len(e.values))
	out[position] = 1
	return out, nil
}

func (e *CategoryEncoder) Width() int {
	if e == nil {
		return 0
	}
	return len(e.values)
}

func (e *CategoryEncoder) Values() []string {
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}
