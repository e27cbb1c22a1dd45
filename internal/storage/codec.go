package storage

import (
	"encoding/json"
	"fmt"

	"coalseq/internal/model"
)

// Metadata blocks are persisted as serialized JSON text attributes; the
// record columns travel as native columns. These helpers keep both sides of
// that split in one place.

func EncodeParameters(p model.Parameters) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeParameters(text string) (model.Parameters, error) {
	var p model.Parameters
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return model.Parameters{}, fmt.Errorf("decode parameters: %w", err)
	}
	return p, nil
}

func EncodeEnvironment(e model.Environment) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeEnvironment(text string) (model.Environment, error) {
	var e model.Environment
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		return model.Environment{}, fmt.Errorf("decode environment: %w", err)
	}
	return e, nil
}

// EncodeContainer serializes a whole container for file interchange.
func EncodeContainer(c model.Container) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// DecodeContainer parses a container produced by EncodeContainer or by the
// external simulator's JSON writer.
func DecodeContainer(data []byte) (model.Container, error) {
	var c model.Container
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Container{}, fmt.Errorf("decode container: %w", err)
	}
	return c, nil
}
