package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalRoomID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no room VM is found.
const globalRoomID = "__global__"

// Manager owns one sandboxed LState per scripted room and exposes hook
// dispatch. Rooms without a script dir fall back to the global VM.
//
// Manager is safe for concurrent CallHook after all LoadRoom calls complete.
// Each LState is single-threaded, so hook dispatch holds the manager lock for
// the duration of the call.
type Manager struct {
	mu      sync.Mutex
	states  map[string]*lua.LState
	cancels map[string]func()
	logger  *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	Broadcast    func(roomID, msg string)
	RoomState    func(roomID, key string) int
	AddRoomState func(roomID, key string, delta int)
	SetWorldFlag func(name string)
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty room map.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		logger:  logger,
	}
}

// LoadRoom creates a sandboxed VM for roomID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: roomID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Room VM is registered; returns error on Lua load failure.
func (m *Manager) LoadRoom(roomID, scriptDir string, instLimit int) error {
	return m.loadInto(roomID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared scripts accessible as a
// CallHook fallback from any room.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalRoomID, scriptDir, instLimit)
}

// LoadRoot walks root for per-room script directories (one subdirectory per
// room id) and loads each, plus an optional root-level global directory named
// "_global".
//
// Precondition: root must be a readable directory.
func (m *Manager) LoadRoot(root string, instLimit int) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if e.Name() == "_global" {
			if err := m.LoadGlobal(dir, instLimit); err != nil {
				return err
			}
			continue
		}
		if err := m.LoadRoom(e.Name(), dir, instLimit); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		if oldCancel := m.cancels[key]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[key] = L
	m.cancels[key] = cancel
	m.mu.Unlock()
	return nil
}

// CallHook calls the named Lua global function in roomID's VM. If the room has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors are logged at Warn
// level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(roomID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[roomID]
	if !ok {
		L = m.states[globalRoomID]
	}
	if L == nil {
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("room", roomID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// OnEnter runs the room's on_enter hook. Part of the room coordinator's hook
// surface; errors never propagate.
func (m *Manager) OnEnter(roomID, playerID string) {
	m.CallHook(roomID, "on_enter", lua.LString(roomID), lua.LString(playerID)) //nolint:errcheck
}

// OnExit runs the room's on_exit hook.
func (m *Manager) OnExit(roomID, playerID string) {
	m.CallHook(roomID, "on_exit", lua.LString(roomID), lua.LString(playerID)) //nolint:errcheck
}

// Close shuts down every VM. The Manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, L := range m.states {
		if cancel := m.cancels[key]; cancel != nil {
			cancel()
		}
		L.Close()
		delete(m.states, key)
		delete(m.cancels, key)
	}
}
