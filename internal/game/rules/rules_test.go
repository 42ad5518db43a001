package rules_test

import (
	"strings"

	"github.com/hollowvale/mud/internal/content"
	"github.com/hollowvale/mud/internal/game/rules"
)

// fakeCatalog is an in-memory content store for matcher/executor tests.
type fakeCatalog struct {
	objects  map[string]content.Object
	spells   map[string]content.Spell
	messages map[string]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		objects:  make(map[string]content.Object),
		spells:   make(map[string]content.Spell),
		messages: make(map[string]string),
	}
}

func (f *fakeCatalog) addObject(id int, name string) {
	f.objects[strings.ToLower(name)] = content.Object{ID: id, Name: name}
}

func (f *fakeCatalog) addSpell(sp content.Spell) {
	f.spells[strings.ToLower(sp.Name)] = sp
}

func (f *fakeCatalog) ObjectByName(name string) (content.Object, bool) {
	o, ok := f.objects[strings.ToLower(name)]
	return o, ok
}

func (f *fakeCatalog) ObjectByID(id int) (content.Object, bool) {
	for _, o := range f.objects {
		if o.ID == id {
			return o, true
		}
	}
	return content.Object{}, false
}

func (f *fakeCatalog) SpellByName(name string) (content.Spell, bool) {
	s, ok := f.spells[strings.ToLower(name)]
	return s, ok
}

func (f *fakeCatalog) Message(id string) (string, bool) {
	m, ok := f.messages[id]
	return m, ok
}

func (f *fakeCatalog) Render(id string, args ...string) (string, bool) {
	m, ok := f.messages[id]
	if !ok {
		return "", false
	}
	return content.Substitute(m, args...), true
}

// fakeRooms is an in-memory RoomAccess with a small object capacity.
type fakeRooms struct {
	state    map[string]int
	objects  []int
	capacity int
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{state: make(map[string]int), capacity: 10}
}

func (f *fakeRooms) StateValue(_, key string) int { return f.state[key] }

func (f *fakeRooms) AddState(_, key string, delta int) { f.state[key] += delta }

func (f *fakeRooms) ObjectCount(_ string) int { return len(f.objects) }

func (f *fakeRooms) AddObject(_ string, objectID int) bool {
	if len(f.objects) >= f.capacity {
		return false
	}
	f.objects = append(f.objects, objectID)
	return true
}

// fixedSource returns a scripted sequence of draws.
type fixedSource struct {
	vals []int
	i    int
}

func (f *fixedSource) Intn(n int) int {
	if len(f.vals) == 0 {
		return 0
	}
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v % n
}

func msgAction(text string) rules.Action {
	return rules.Action{Kind: rules.KindMessage, Text: text}
}
