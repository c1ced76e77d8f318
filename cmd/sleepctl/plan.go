package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"powercode-go/services/power/sleepreq"
	"powercode-go/sleep"
	"powercode-go/types"
)

// Plan is a named set of sleep requests for one board.
type Plan struct {
	Board    BoardProfile   `yaml:"board"`
	Requests []NamedRequest `yaml:"requests"`
}

// BoardProfile carries the limits the device validates against.
type BoardProfile struct {
	Name     string `yaml:"name"`
	PinCount int    `yaml:"pin_count"`
	WakePin  int    `yaml:"wake_pin"`
}

type NamedRequest struct {
	Name               string `yaml:"name"`
	types.SleepRequest `yaml:",inline"`
}

func (b BoardProfile) limits() sleep.Limits {
	return sleep.Limits{PinCount: b.PinCount, WakePin: b.WakePin}
}

func loadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Board.PinCount <= 0 {
		return nil, fmt.Errorf("%s: board.pin_count must be positive", path)
	}
	if len(p.Requests) == 0 {
		return nil, fmt.Errorf("%s: no requests", path)
	}
	seen := make(map[string]bool, len(p.Requests))
	for i, r := range p.Requests {
		if r.Name == "" {
			return nil, fmt.Errorf("%s: request %d has no name", path, i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%s: duplicate request %q", path, r.Name)
		}
		seen[r.Name] = true
	}
	return &p, nil
}

// find returns the named request, or the only one when name is empty.
func (p *Plan) find(name string) (NamedRequest, error) {
	if name == "" {
		if len(p.Requests) == 1 {
			return p.Requests[0], nil
		}
		return NamedRequest{}, fmt.Errorf("plan has %d requests; pick one with -request", len(p.Requests))
	}
	for _, r := range p.Requests {
		if r.Name == name {
			return r, nil
		}
	}
	return NamedRequest{}, fmt.Errorf("no request named %q", name)
}

// check validates r offline against the plan's board.
func (p *Plan) check(r NamedRequest) error {
	req, err := sleepreq.FromWire(r.SleepRequest)
	if err != nil {
		return err
	}
	return sleep.Validate(req, p.Board.limits())
}
