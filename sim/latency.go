package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// LatencyDistribution is a random delay law attached to an edge class.
// Sampling consumes the engine-global stream; each law documents how many
// draws one sample costs so that unrelated configuration changes do not
// perturb unrelated samples.
type LatencyDistribution interface {
	// Sample draws one non-negative delay from src.
	Sample(src rand.Source) Jiffies
	// validate reports malformed parameters at build time.
	validate() error
}

// Uniform is an integer-uniform delay on the inclusive range [Lo, Hi].
// One sample consumes one draw.
type Uniform struct {
	Lo, Hi Jiffies
}

func (u Uniform) Sample(src rand.Source) Jiffies {
	span := uint64(u.Hi-u.Lo) + 1
	if span == 0 {
		// Lo=0, Hi=MaxJiffies: the span overflows and the draw covers the
		// full uint64 range already.
		return Jiffies(rand.New(src).Uint64())
	}
	return u.Lo + Jiffies(rand.New(src).Uint64n(span))
}

func (u Uniform) validate() error {
	if u.Lo > u.Hi {
		return fmt.Errorf("uniform latency has inverted bounds [%d, %d]", u.Lo, u.Hi)
	}
	return nil
}

// Normal is a Gaussian delay with the given mean and standard deviation,
// clamped to >= 0 and rounded to the nearest jiffy.
type Normal struct {
	Mean, StdDev float64
}

func (n Normal) Sample(src rand.Source) Jiffies {
	v := distuv.Normal{Mu: n.Mean, Sigma: n.StdDev, Src: src}.Rand()
	if v < 0 {
		return 0
	}
	return Jiffies(math.Round(v))
}

func (n Normal) validate() error {
	if n.StdDev < 0 {
		return fmt.Errorf("normal latency has negative stddev %v", n.StdDev)
	}
	if n.Mean < 0 {
		return fmt.Errorf("normal latency has negative mean %v", n.Mean)
	}
	return nil
}

// Bernoulli delays by Delay with probability P and by 0 otherwise.
// One sample consumes one uniform draw.
type Bernoulli struct {
	P     float64
	Delay Jiffies
}

func (b Bernoulli) Sample(src rand.Source) Jiffies {
	if (distuv.Bernoulli{P: b.P, Src: src}).Rand() == 1 {
		return b.Delay
	}
	return 0
}

func (b Bernoulli) validate() error {
	if b.P < 0 || b.P > 1 {
		return fmt.Errorf("bernoulli latency has probability %v outside [0, 1]", b.P)
	}
	return nil
}

// === Rules ===

type latencyRuleKind int

const (
	ruleWithinPool latencyRuleKind = iota
	ruleBetweenPools
)

// LatencyRule binds a latency law to an edge class. Rules are evaluated in
// declaration order; the first matching rule wins.
type LatencyRule struct {
	kind latencyRuleKind
	a, b string
	dist LatencyDistribution
}

// WithinPool matches edges whose source and destination are both members of
// the named pool.
func WithinPool(pool string, dist LatencyDistribution) LatencyRule {
	return LatencyRule{kind: ruleWithinPool, a: pool, b: pool, dist: dist}
}

// BetweenPools matches edges with one endpoint in a and the other in b, in
// either direction.
func BetweenPools(a, b string, dist LatencyDistribution) LatencyRule {
	return LatencyRule{kind: ruleBetweenPools, a: a, b: b, dist: dist}
}

func (r LatencyRule) matches(t *processTable, src, dst ProcessID) bool {
	switch r.kind {
	case ruleWithinPool:
		return t.member(r.a, src) && t.member(r.a, dst)
	default:
		return t.member(r.a, src) && t.member(r.b, dst) ||
			t.member(r.b, src) && t.member(r.a, dst)
	}
}

// latencyMatrix resolves (src, dst) edges to delay samples. Edges matched by
// no rule fall back to a zero-delay uniform law, which still consumes one
// draw so that adding a rule elsewhere does not shift unrelated samples.
type latencyMatrix struct {
	rules    []LatencyRule
	fallback LatencyDistribution
	table    *processTable
}

func newLatencyMatrix(rules []LatencyRule, table *processTable) *latencyMatrix {
	return &latencyMatrix{rules: rules, fallback: Uniform{Lo: 0, Hi: 0}, table: table}
}

func (m *latencyMatrix) sample(src rand.Source, from, to ProcessID) Jiffies {
	for _, rule := range m.rules {
		if rule.matches(m.table, from, to) {
			return rule.dist.Sample(src)
		}
	}
	return m.fallback.Sample(src)
}
