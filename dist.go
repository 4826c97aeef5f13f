package maybenot

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistKind is the closed set of distribution families a Distribution may
// draw from.
type DistKind int

const (
	DistNone DistKind = iota
	DistUniform
	DistNormal
	DistLogNormal
	DistPoisson
	DistPareto
	DistGeometric
	DistWeibull
	DistGamma
)

func (k DistKind) String() string {
	switch k {
	case DistNone:
		return "none"
	case DistUniform:
		return "uniform"
	case DistNormal:
		return "normal"
	case DistLogNormal:
		return "lognormal"
	case DistPoisson:
		return "poisson"
	case DistPareto:
		return "pareto"
	case DistGeometric:
		return "geometric"
	case DistWeibull:
		return "weibull"
	case DistGamma:
		return "gamma"
	default:
		return "unknown"
	}
}

// Distribution is a tagged probability family plus an additive floor and an
// optional upper clamp. Param1/Param2 are interpreted per Kind:
//
//	Uniform    Param1=low    Param2=high
//	Normal     Param1=mean   Param2=stdev
//	LogNormal  Param1=mu     Param2=sigma (of the underlying normal)
//	Poisson    Param1=lambda
//	Pareto     Param1=xm     Param2=alpha
//	Geometric  Param1=p
//	Weibull    Param1=shape  Param2=scale
//	Gamma      Param1=shape  Param2=scale
//
// Max == 0 means "no clamp"; a Distribution that legitimately needs a zero
// clamp is nonsensical (it would always sample zero), so the sentinel is
// unambiguous.
type Distribution struct {
	Kind   DistKind
	Param1 float64
	Param2 float64
	Start  float64
	Max    float64
}

// Validate rejects inverted ranges, negative stdev, and unsupported
// families, per spec.
func (d Distribution) Validate() error {
	if d.Start < 0 || math.IsNaN(d.Start) || math.IsInf(d.Start, 0) {
		return newError(KindDistribution, "start %v is invalid", d.Start)
	}
	if d.Max < 0 || math.IsNaN(d.Max) || math.IsInf(d.Max, 0) {
		return newError(KindDistribution, "max %v is invalid", d.Max)
	}
	switch d.Kind {
	case DistNone:
		return nil
	case DistUniform:
		if d.Param1 > d.Param2 {
			return newError(KindDistribution, "uniform range [%v, %v] is inverted", d.Param1, d.Param2)
		}
	case DistNormal, DistLogNormal:
		if d.Param2 < 0 {
			return newError(KindDistribution, "%s stdev %v is negative", d.Kind, d.Param2)
		}
	case DistPoisson:
		if d.Param1 <= 0 {
			return newError(KindDistribution, "poisson lambda %v must be positive", d.Param1)
		}
	case DistPareto:
		if d.Param1 <= 0 || d.Param2 <= 0 {
			return newError(KindDistribution, "pareto xm=%v alpha=%v must be positive", d.Param1, d.Param2)
		}
	case DistGeometric:
		if d.Param1 <= 0 || d.Param1 > 1 {
			return newError(KindDistribution, "geometric p %v must be in (0, 1]", d.Param1)
		}
	case DistWeibull, DistGamma:
		if d.Param1 <= 0 || d.Param2 <= 0 {
			return newError(KindDistribution, "%s shape=%v scale=%v must be positive", d.Kind, d.Param1, d.Param2)
		}
	default:
		return newError(KindDistribution, "unsupported family %d", d.Kind)
	}
	return nil
}

// Sample draws a non-negative float64, applying the additive Start floor
// and, if set, the Max clamp. rng must be non-nil; there is no package-level
// fallback (spec §9, "RNG as a collaborator").
func (d Distribution) Sample(rng *rand.Rand) float64 {
	var raw float64
	switch d.Kind {
	case DistNone:
		raw = 0
	case DistUniform:
		raw = d.Param1 + rng.Float64()*(d.Param2-d.Param1)
	case DistNormal:
		raw = distuv.Normal{Mu: d.Param1, Sigma: d.Param2, Src: rng}.Rand()
	case DistLogNormal:
		raw = distuv.LogNormal{Mu: d.Param1, Sigma: d.Param2, Src: rng}.Rand()
	case DistPoisson:
		raw = distuv.Poisson{Lambda: d.Param1, Src: rng}.Rand()
	case DistPareto:
		raw = distuv.Pareto{Xm: d.Param1, Alpha: d.Param2, Src: rng}.Rand()
	case DistGeometric:
		// Inverse-CDF sampling of the number of Bernoulli(p) trials until
		// the first success, over a uniform [0,1) draw.
		u := rng.Float64()
		if u >= 1 {
			u = math.Nextafter(1, 0)
		}
		raw = math.Ceil(math.Log(1-u) / math.Log(1-d.Param1))
	case DistWeibull:
		raw = distuv.Weibull{K: d.Param1, Lambda: d.Param2, Src: rng}.Rand()
	case DistGamma:
		raw = distuv.Gamma{Alpha: d.Param1, Beta: 1 / d.Param2, Src: rng}.Rand()
	default:
		raw = 0
	}
	if raw < 0 || math.IsNaN(raw) {
		raw = 0
	}
	result := d.Start + raw
	if d.Max > 0 && result > d.Max {
		result = d.Max
	}
	if result < 0 {
		result = 0
	}
	return result
}
