package sim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig is the on-disk description of a run: seed, budget,
// bandwidth, pools and latency topology. Behaviors are referenced by name
// and resolved against a registry when the config is turned into a Builder.
type ScenarioConfig struct {
	Seed       uint64             `yaml:"seed" toml:"seed"`
	TimeBudget uint64             `yaml:"time_budget" toml:"time_budget"`
	// Bandwidth is the per-process outbound rate in bytes per jiffy.
	// Zero or absent means unbounded.
	Bandwidth uint64             `yaml:"bandwidth" toml:"bandwidth"`
	Pools     []PoolConfig       `yaml:"pools" toml:"pools"`
	Latency   []LatencyRuleConfig `yaml:"latency" toml:"latency"`
}

// PoolConfig declares one pool of identically behaving processes.
type PoolConfig struct {
	Name     string `yaml:"name" toml:"name"`
	Size     int    `yaml:"size" toml:"size"`
	Behavior string `yaml:"behavior" toml:"behavior"`
}

// LatencyRuleConfig declares one latency rule. Exactly one of Within or
// Between must be set; Between names the two endpoint pools.
type LatencyRuleConfig struct {
	Within       string             `yaml:"within,omitempty" toml:"within,omitempty"`
	Between      []string           `yaml:"between,omitempty" toml:"between,omitempty"`
	Distribution DistributionConfig `yaml:"distribution" toml:"distribution"`
}

// DistributionConfig selects a delay law by type name. Only the fields of
// the selected type are read.
type DistributionConfig struct {
	Type   string  `yaml:"type" toml:"type"`
	Lo     uint64  `yaml:"lo" toml:"lo"`
	Hi     uint64  `yaml:"hi" toml:"hi"`
	Mean   float64 `yaml:"mean" toml:"mean"`
	StdDev float64 `yaml:"stddev" toml:"stddev"`
	P      float64 `yaml:"p" toml:"p"`
	Delay  uint64  `yaml:"delay" toml:"delay"`
}

func (d DistributionConfig) distribution() (LatencyDistribution, error) {
	switch d.Type {
	case "uniform":
		return Uniform{Lo: Jiffies(d.Lo), Hi: Jiffies(d.Hi)}, nil
	case "normal":
		return Normal{Mean: d.Mean, StdDev: d.StdDev}, nil
	case "bernoulli":
		return Bernoulli{P: d.P, Delay: Jiffies(d.Delay)}, nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q", d.Type)
	}
}

// LoadScenarioConfig reads a scenario from a YAML or TOML file, chosen by
// extension.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	var cfg ScenarioConfig
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("scenario %s has unsupported extension %q", path, ext)
	}
	return &cfg, nil
}

// Builder turns the scenario into a configured Builder, resolving behavior
// names against the given registry.
func (c *ScenarioConfig) Builder(behaviors map[string]func() Process) (*Builder, error) {
	b := NewBuilder().Seed(Seed(c.Seed))
	if c.TimeBudget > 0 {
		b.TimeBudget(Jiffies(c.TimeBudget))
	}
	if c.Bandwidth > 0 {
		b.NICBandwidth(Bounded(c.Bandwidth))
	}
	for _, pool := range c.Pools {
		factory, ok := behaviors[pool.Behavior]
		if !ok {
			return nil, fmt.Errorf("pool %q references unknown behavior %q", pool.Name, pool.Behavior)
		}
		b.AddPool(pool.Name, pool.Size, factory)
	}
	rules := make([]LatencyRule, 0, len(c.Latency))
	for i, rc := range c.Latency {
		dist, err := rc.Distribution.distribution()
		if err != nil {
			return nil, fmt.Errorf("latency rule %d: %w", i, err)
		}
		switch {
		case rc.Within != "" && len(rc.Between) == 0:
			rules = append(rules, WithinPool(rc.Within, dist))
		case rc.Within == "" && len(rc.Between) == 2:
			rules = append(rules, BetweenPools(rc.Between[0], rc.Between[1], dist))
		default:
			return nil, fmt.Errorf("latency rule %d must set either within or a two-element between", i)
		}
	}
	if len(rules) > 0 {
		b.LatencyTopology(rules...)
	}
	return b, nil
}
