package config

import (
	"errors"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultSystemConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestInvalidThresholds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SystemConfig)
	}{
		{"zero shadow threshold", func(c *SystemConfig) { c.Learning.ShadowThreshold = 0 }},
		{"golden below shadow", func(c *SystemConfig) { c.Learning.GoldenThreshold = 10; c.Learning.ShadowThreshold = 50 }},
		{"tiny window", func(c *SystemConfig) { c.Learning.WindowSize = 3 }},
		{"negative tolerance", func(c *SystemConfig) { c.Tolerance.ProductionToleranceFactor = -1 }},
		{"zero std floor", func(c *SystemConfig) { c.Tolerance.StdFloor = 0 }},
		{"positive neg-slope threshold", func(c *SystemConfig) { c.Physics.NegSlopeThreshold = 0.5 }},
		{"inverted torque bounds", func(c *SystemConfig) { c.Physics.TorqueAbsMin = 60; c.Physics.TorqueAbsMax = 10 }},
		{"inverted slope bounds", func(c *SystemConfig) { c.Physics.SlopeMinAbs = 20; c.Physics.SlopeMaxAbs = 10 }},
	}
	for _, tc := range cases {
		cfg := DefaultSystemConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
			t.Fatalf("%s: expected ErrConfig, got %v", tc.name, err)
		}
	}
}

func TestNormalizedClampsToleranceFactor(t *testing.T) {
	cfg := DefaultSystemConfig()

	cfg.Tolerance.ProductionToleranceFactor = 10
	if got := cfg.Normalized().Tolerance.ProductionToleranceFactor; got != 5.0 {
		t.Fatalf("upper clamp: want 5.0, got %f", got)
	}

	cfg.Tolerance.ProductionToleranceFactor = 0.1
	if got := cfg.Normalized().Tolerance.ProductionToleranceFactor; got != 0.5 {
		t.Fatalf("lower clamp: want 0.5, got %f", got)
	}

	cfg.Tolerance.ProductionToleranceFactor = 3.0
	if got := cfg.Normalized().Tolerance.ProductionToleranceFactor; got != 3.0 {
		t.Fatalf("in-range value must pass through, got %f", got)
	}
}
