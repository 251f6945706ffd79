// Package program loads reactor programs described as YAML tables.
//
// A program lists triggers and reactions with their trusted priority
// indices. Reaction bodies are sequences of small behaviour ops (emit,
// schedule, busy, log, count), which is enough to express timing scenarios
// without compiling Go code.
package program

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Program is the decoded program table.
// All fields must be listed to satisfy KnownFields(true) strict parsing.
type Program struct {
	Name      string         `yaml:"name"`
	Stop      time.Duration  `yaml:"stop"`      // 0 = run until the queue empties
	KeepAlive bool           `yaml:"keepalive"` // wait for events when the queue is empty
	Fast      bool           `yaml:"fast"`      // no physical pacing
	Triggers  []TriggerSpec  `yaml:"triggers"`
	Reactions []ReactionSpec `yaml:"reactions"`
}

// TriggerSpec declares one trigger.
type TriggerSpec struct {
	Name     string        `yaml:"name"`
	Kind     string        `yaml:"kind"`
	Offset   time.Duration `yaml:"offset"`    // timers only
	Period   time.Duration `yaml:"period"`    // timers only
	MinDelay time.Duration `yaml:"min_delay"` // actions only
}

// ReactionSpec declares one reaction and its body.
type ReactionSpec struct {
	Name       string        `yaml:"name"`
	Priority   int           `yaml:"priority"`
	Triggers   []string      `yaml:"triggers"`
	Outputs    []string      `yaml:"outputs"`
	Deadline   time.Duration `yaml:"deadline"`
	OnDeadline string        `yaml:"on_deadline"`
	Do         []OpSpec      `yaml:"do"`
}

// OpSpec is one step of a reaction body.
type OpSpec struct {
	Op       string        `yaml:"op"`
	Target   string        `yaml:"target"`   // emit, schedule
	Value    any           `yaml:"value"`    // emit, schedule; nil forwards the input value
	Delay    time.Duration `yaml:"delay"`    // schedule: extra delay on top of min_delay
	Limit    int           `yaml:"limit"`    // schedule: max schedules over the run (0 = unlimited)
	Duration time.Duration `yaml:"duration"` // busy
}

// Parse decodes a program table. Unknown keys are rejected.
func Parse(data []byte) (*Program, error) {
	var p Program
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing program: empty document")
		}
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	return &p, nil
}

// Load reads the program at url (a local path, file:// or mem:// URL, or any
// scheme registered with fs), parses and validates it.
func Load(ctx context.Context, fs afs.Service, url string) (*Program, error) {
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("reading program %s: %w", url, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return p, nil
}

// Summary returns a one-line description of p.
func (p *Program) Summary() string {
	return fmt.Sprintf("program %q: %d triggers, %d reactions, stop=%v keepalive=%v fast=%v",
		p.Name, len(p.Triggers), len(p.Reactions), p.Stop, p.KeepAlive, p.Fast)
}
