package encoding

import "math"

// EncodeSequence maps a most-recent-first raw sequence onto a fixed-width
// vector. Nil samples are dropped. An empty sequence yields the encoder floor
// repeated windowSize times; a short sequence is padded with the mean of the
// available samples before encoding.
func EncodeSequence(windowSize int, encoder ValueEncoder, raw []*float64) []float64 {
	if windowSize <= 0 {
		return nil
	}

	values := dropNils(raw)
	out := make([]float64, 0, windowSize)
	if len(values) == 0 {
		for i := 0; i < windowSize; i++ {
			out = append(out, encoder.Floor())
		}
		return out
	}

	fill := mean(values)
	for i := 0; i < windowSize; i++ {
		if i < len(values) {
			out = append(out, encoder.Transform(values[i]))
			continue
		}
		out = append(out, encoder.Transform(fill))
	}

	return out
}

// ZScoreSequence standardizes a raw sequence against a reference population
// and maps each z-score onto [minOutput, minOutput+1] via minOutput + (2+z)/4.
// Fewer than two reference samples yields the neutral vector (z=0 everywhere).
func ZScoreSequence(windowSize int, minOutput float64, reference, raw []*float64) []float64 {
	if windowSize <= 0 {
		return nil
	}

	neutral := minOutput + 0.5
	refValues := dropNils(reference)
	values := dropNils(raw)
	if len(refValues) < 2 || len(values) == 0 {
		out := make([]float64, 0, windowSize)
		for i := 0; i < windowSize; i++ {
			out = append(out, neutral)
		}
		return out
	}

	refMean := mean(refValues)
	refStd := stddev(refValues, refMean)
	fill := mean(values)

	out := make([]float64, 0, windowSize)
	for i := 0; i < windowSize; i++ {
		v := fill
		if i < len(values) {
			v = values[i]
		}

		z := 0.0
		if refStd > 0 {
			z = (v - refMean) / refStd
		}
		out = append(out, minOutput+(2+z)/4)
	}

	return out
}

// RollingStdDev is the population standard deviation of the non-nil samples.
// Fewer than two samples is not enough signal and yields zero.
func RollingStdDev(raw []*float64) float64 {
	values := dropNils(raw)
	if len(values) < 2 {
		return 0
	}
	return stddev(values, mean(values))
}

// Mean averages the non-nil samples, returning ok=false for an empty input.
func Mean(raw []*float64) (float64, bool) {
	values := dropNils(raw)
	if len(values) == 0 {
		return 0, false
	}
	return mean(values), true
}

func dropNils(raw []*float64) []float64 {
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		out = append(out, *v)
	}
	return out
}

func mean(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
