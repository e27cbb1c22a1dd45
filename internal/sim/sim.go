// Package sim defines the boundary to the external coalescent simulator:
// the low-level configuration record it consumes and the explicit mapping
// from population-model variants onto it. The simulation itself happens
// elsewhere; this package only shapes its inputs.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"coalseq/internal/model"
)

// Low-level population model discriminants understood by the simulator.
const (
	PopModelConstant    = 0
	PopModelExponential = 1
)

var (
	ErrInvalidSampleSize = errors.New("sample size must be >= 2")
	ErrInvalidNumLoci    = errors.New("positive number of loci required")
)

// PopulationConfig is the flat configuration record for one population
// model epoch, in the shape the simulator expects.
type PopulationConfig struct {
	Type      int     `json:"type"`
	StartTime float64 `json:"start_time"`
	Size      float64 `json:"size"`
	Alpha     float64 `json:"alpha"`
}

// Config carries everything the simulator needs for one run, including the
// buffer sizing hints derived in FillDefaults.
type Config struct {
	SampleSize                 uint32
	NumLoci                    uint32
	ScaledRecombinationRate    float64
	RandomSeed                 int64
	PopulationModels           []PopulationConfig
	MaxMemory                  int64
	SegmentBlockSize           int
	AVLNodeBlockSize           int
	NodeMappingBlockSize       int
	CoalescenceRecordBlockSize int
}

// Engine is the external simulator. Run performs the coalescent with
// recombination and returns the resulting record container.
type Engine interface {
	Run(ctx context.Context, cfg Config) (model.Container, error)
}

// PopulationConfigFor maps one tagged population-model variant onto its
// low-level record. Each variant is handled explicitly; unknown kinds are
// rejected rather than reflected through.
func PopulationConfigFor(m model.PopulationModel) (PopulationConfig, error) {
	if err := m.Validate(); err != nil {
		return PopulationConfig{}, err
	}
	switch m.Kind {
	case model.PopulationConstant:
		return PopulationConfig{Type: PopModelConstant, StartTime: m.StartTime, Size: m.Size}, nil
	case model.PopulationExponential:
		return PopulationConfig{Type: PopModelExponential, StartTime: m.StartTime, Alpha: m.Alpha}, nil
	default:
		return PopulationConfig{}, fmt.Errorf("%w: %q", model.ErrUnknownPopulationModel, m.Kind)
	}
}

// BuildConfig validates the parameters, maps the population models in
// start-time order and fills buffer sizing defaults.
func BuildConfig(p model.Parameters) (Config, error) {
	if p.SampleSize < 2 {
		return Config{}, ErrInvalidSampleSize
	}
	if p.NumLoci < 1 {
		return Config{}, ErrInvalidNumLoci
	}
	models := append([]model.PopulationModel(nil), p.PopulationModels...)
	sort.SliceStable(models, func(i, j int) bool { return models[i].StartTime < models[j].StartTime })

	cfg := Config{
		SampleSize:              p.SampleSize,
		NumLoci:                 p.NumLoci,
		ScaledRecombinationRate: p.ScaledRecombinationRate,
		RandomSeed:              p.RandomSeed,
	}
	for _, m := range models {
		ll, err := PopulationConfigFor(m)
		if err != nil {
			return Config{}, err
		}
		cfg.PopulationModels = append(cfg.PopulationModels, ll)
	}
	cfg.FillDefaults()
	return cfg, nil
}

// FillDefaults sizes the simulator's block allocators from the expected
// number of distinct trees, leaving caller-set values alone.
func (c *Config) FillDefaults() {
	n := int(c.SampleSize)
	m := int(c.NumLoci)
	rho := 4 * c.ScaledRecombinationRate * float64(m-1)
	numTrees := rho * HarmonicNumber(n-1)
	if float64(m/2) < numTrees {
		numTrees = float64(m / 2)
	}
	const baseline = 10
	trees := int(numTrees)
	if trees < baseline {
		trees = baseline
	}
	avlNodes := 4*n + trees
	if avlNodes < baseline {
		avlNodes = baseline
	}
	segments := int(0.0125 * float64(n) * rho)
	if segments < baseline {
		segments = baseline
	}
	if c.AVLNodeBlockSize == 0 {
		c.AVLNodeBlockSize = avlNodes
	}
	if c.SegmentBlockSize == 0 {
		c.SegmentBlockSize = segments
	}
	if c.NodeMappingBlockSize == 0 {
		c.NodeMappingBlockSize = trees
	}
	if c.CoalescenceRecordBlockSize == 0 {
		// 16KiB worth of 32-byte records.
		c.CoalescenceRecordBlockSize = 16 * 1024 / 32
	}
	if c.MaxMemory == 0 {
		c.MaxMemory = 10 * 1024 * 1024
	}
}

// HarmonicNumber returns the nth harmonic number.
func HarmonicNumber(n int) float64 {
	sum := 0.0
	for k := 1; k <= n; k++ {
		sum += 1 / float64(k)
	}
	return sum
}

// ParseMaxMemory converts a size string with an optional K, M or G suffix
// (binary units) into bytes.
func ParseMaxMemory(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty memory size")
	}
	multiplier := int64(1)
	switch s[len(s)-1] {
	case 'K':
		multiplier = 1 << 10
		s = s[:len(s)-1]
	case 'M':
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case 'G':
		multiplier = 1 << 30
		s = s[:len(s)-1]
	}
	var value int64
	if _, err := fmt.Sscanf(s, "%d", &value); err != nil {
		return 0, fmt.Errorf("invalid memory size %q: %w", s, err)
	}
	return value * multiplier, nil
}
