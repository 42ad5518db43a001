package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store is the YAML-backed implementation of all catalog interfaces.
// It is immutable after Load and safe for concurrent reads.
type Store struct {
	objectsByName map[string]Object
	objectsByID   map[int]Object
	spellsByName  map[string]Spell
	messages      map[string]string
	roomState     map[string]map[string]int
	roomObjects   map[string][]int
}

type yamlObjectFile struct {
	Objects []yamlObject `yaml:"objects"`
}

type yamlObject struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type yamlSpellFile struct {
	Spells []yamlSpell `yaml:"spells"`
}

type yamlSpell struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Book  string `yaml:"book"`
	Bit   uint   `yaml:"bit"`
	Price int    `yaml:"price"`
}

type yamlMessageFile struct {
	Messages map[string]string `yaml:"messages"`
}

type yamlRoomDefaultsFile struct {
	Rooms []yamlRoomDefaults `yaml:"rooms"`
}

type yamlRoomDefaults struct {
	ID      string         `yaml:"id"`
	State   map[string]int `yaml:"state"`
	Objects []int          `yaml:"objects"`
}

// Load reads objects.yaml, spells.yaml, messages.yaml, and room_defaults.yaml
// from dir. Malformed files are fatal: no room may become active over a
// half-loaded catalog.
//
// Precondition: dir must be a readable directory containing the four catalog files.
// Postcondition: Returns a fully-populated Store or a non-nil error.
func Load(dir string) (*Store, error) {
	s := &Store{
		objectsByName: make(map[string]Object),
		objectsByID:   make(map[int]Object),
		spellsByName:  make(map[string]Spell),
		messages:      make(map[string]string),
		roomState:     make(map[string]map[string]int),
		roomObjects:   make(map[string][]int),
	}

	if err := s.loadObjects(filepath.Join(dir, "objects.yaml")); err != nil {
		return nil, err
	}
	if err := s.loadSpells(filepath.Join(dir, "spells.yaml")); err != nil {
		return nil, err
	}
	if err := s.loadMessages(filepath.Join(dir, "messages.yaml")); err != nil {
		return nil, err
	}
	if err := s.loadRoomDefaults(filepath.Join(dir, "room_defaults.yaml")); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) loadObjects(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading object catalog %s: %w", path, err)
	}
	var file yamlObjectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing object catalog: %w", err)
	}
	for _, o := range file.Objects {
		if o.Name == "" {
			return fmt.Errorf("object catalog: object %d has empty name", o.ID)
		}
		key := strings.ToLower(o.Name)
		if _, exists := s.objectsByName[key]; exists {
			return fmt.Errorf("object catalog: duplicate object name %q", o.Name)
		}
		obj := Object{ID: o.ID, Name: o.Name}
		s.objectsByName[key] = obj
		s.objectsByID[o.ID] = obj
	}
	return nil
}

func (s *Store) loadSpells(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading spell catalog %s: %w", path, err)
	}
	var file yamlSpellFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing spell catalog: %w", err)
	}
	validBooks := map[string]bool{
		string(BookOffense): true,
		string(BookDefense): true,
		string(BookOther):   true,
	}
	for _, sp := range file.Spells {
		if sp.Name == "" {
			return fmt.Errorf("spell catalog: spell %d has empty name", sp.ID)
		}
		if !validBooks[sp.Book] {
			return fmt.Errorf("spell catalog: spell %q has unknown book %q", sp.Name, sp.Book)
		}
		key := strings.ToLower(sp.Name)
		if _, exists := s.spellsByName[key]; exists {
			return fmt.Errorf("spell catalog: duplicate spell name %q", sp.Name)
		}
		s.spellsByName[key] = Spell{
			ID:    sp.ID,
			Name:  sp.Name,
			Book:  SpellBook(sp.Book),
			Bit:   sp.Bit,
			Price: sp.Price,
		}
	}
	return nil
}

func (s *Store) loadMessages(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading message catalog %s: %w", path, err)
	}
	var file yamlMessageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing message catalog: %w", err)
	}
	s.messages = file.Messages
	if s.messages == nil {
		s.messages = make(map[string]string)
	}
	return nil
}

func (s *Store) loadRoomDefaults(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading room defaults %s: %w", path, err)
	}
	var file yamlRoomDefaultsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing room defaults: %w", err)
	}
	for _, r := range file.Rooms {
		if r.ID == "" {
			return fmt.Errorf("room defaults: entry with empty room id")
		}
		if _, exists := s.roomState[r.ID]; exists {
			return fmt.Errorf("room defaults: duplicate room id %q", r.ID)
		}
		s.roomState[r.ID] = r.State
		s.roomObjects[r.ID] = r.Objects
	}
	return nil
}

// ObjectByName returns the object with the given name, case-insensitively.
func (s *Store) ObjectByName(name string) (Object, bool) {
	o, ok := s.objectsByName[strings.ToLower(name)]
	return o, ok
}

// ObjectByID returns the object with the given id.
func (s *Store) ObjectByID(id int) (Object, bool) {
	o, ok := s.objectsByID[id]
	return o, ok
}

// SpellByName returns the spell with the given name, case-insensitively.
func (s *Store) SpellByName(name string) (Spell, bool) {
	sp, ok := s.spellsByName[strings.ToLower(name)]
	return sp, ok
}

// Message returns the raw template for id.
func (s *Store) Message(id string) (string, bool) {
	m, ok := s.messages[id]
	return m, ok
}

// Render returns the template for id with %s tokens replaced by args in order.
func (s *Store) Render(id string, args ...string) (string, bool) {
	m, ok := s.messages[id]
	if !ok {
		return "", false
	}
	return Substitute(m, args...), true
}

// DefaultState returns a copy of the default flag map for roomID.
//
// Postcondition: Returns a non-nil map the caller may mutate freely.
func (s *Store) DefaultState(roomID string) map[string]int {
	out := make(map[string]int, len(s.roomState[roomID]))
	for k, v := range s.roomState[roomID] {
		out[k] = v
	}
	return out
}

// DefaultObjects returns a copy of the default object list for roomID.
func (s *Store) DefaultObjects(roomID string) []int {
	return append([]int(nil), s.roomObjects[roomID]...)
}
