package model

import (
	"errors"
	"fmt"
)

// PopulationModelKind discriminates the closed set of population histories
// the external simulator understands.
type PopulationModelKind string

const (
	PopulationConstant    PopulationModelKind = "constant"
	PopulationExponential PopulationModelKind = "exponential"
)

var ErrUnknownPopulationModel = errors.New("unknown population model kind")

// PopulationModel is a tagged variant describing one epoch of population
// history, starting at StartTime (in coalescent time units). Size is set for
// constant models, Alpha for exponential growth models; the other field is
// zero and ignored.
type PopulationModel struct {
	Kind      PopulationModelKind `json:"kind"`
	StartTime float64             `json:"start_time"`
	Size      float64             `json:"size,omitempty"`
	Alpha     float64             `json:"alpha,omitempty"`
}

// ConstantPopulationModel describes a population of fixed size, expressed
// relative to the population size at sampling time.
func ConstantPopulationModel(startTime, size float64) PopulationModel {
	return PopulationModel{Kind: PopulationConstant, StartTime: startTime, Size: size}
}

// ExponentialPopulationModel describes a population growing or shrinking
// exponentially at rate alpha.
func ExponentialPopulationModel(startTime, alpha float64) PopulationModel {
	return PopulationModel{Kind: PopulationExponential, StartTime: startTime, Alpha: alpha}
}

// Validate rejects variants outside the closed kind set.
func (m PopulationModel) Validate() error {
	switch m.Kind {
	case PopulationConstant, PopulationExponential:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPopulationModel, m.Kind)
	}
}
