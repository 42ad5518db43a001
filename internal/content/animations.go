package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnimationRoutine is one entry of the world animation rotation. Message is a
// message catalog id emitted world-wide when the routine's turn comes around.
type AnimationRoutine struct {
	Name    string `yaml:"name"`
	Message string `yaml:"message"`
}

// AnimationFlag describes a one-shot world flag gameplay can arm: when the
// flag is consumed, Message is delivered to Room.
type AnimationFlag struct {
	Name    string `yaml:"name"`
	Message string `yaml:"message"`
	Room    string `yaml:"room"`
}

// Animations is the parsed animations.yaml catalog.
type Animations struct {
	Routines []AnimationRoutine `yaml:"routines"`
	Flags    []AnimationFlag    `yaml:"flags"`
}

// LoadAnimations reads and validates the animation catalog at path.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns an Animations with at least one routine, or a non-nil error.
func LoadAnimations(path string) (Animations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Animations{}, fmt.Errorf("reading animation catalog %s: %w", path, err)
	}
	var a Animations
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Animations{}, fmt.Errorf("parsing animation catalog: %w", err)
	}
	if len(a.Routines) == 0 {
		return Animations{}, fmt.Errorf("animation catalog %s: no routines defined", path)
	}
	seen := make(map[string]bool, len(a.Routines))
	for i, r := range a.Routines {
		if r.Name == "" {
			return Animations{}, fmt.Errorf("animation catalog: routine %d has empty name", i)
		}
		if r.Message == "" {
			return Animations{}, fmt.Errorf("animation catalog: routine %q has empty message", r.Name)
		}
		if seen[r.Name] {
			return Animations{}, fmt.Errorf("animation catalog: duplicate routine name %q", r.Name)
		}
		seen[r.Name] = true
	}
	flagSeen := make(map[string]bool, len(a.Flags))
	for i, f := range a.Flags {
		if f.Name == "" {
			return Animations{}, fmt.Errorf("animation catalog: flag %d has empty name", i)
		}
		if f.Message == "" {
			return Animations{}, fmt.Errorf("animation catalog: flag %q has empty message", f.Name)
		}
		if flagSeen[f.Name] {
			return Animations{}, fmt.Errorf("animation catalog: duplicate flag name %q", f.Name)
		}
		flagSeen[f.Name] = true
	}
	return a, nil
}
