package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers the engine.* Lua table into L. Each function is
// backed by a Manager callback field; unset callbacks make the corresponding
// Lua function a harmless no-op so scripts load identically in tests.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	// engine.broadcast(room_id, message)
	L.SetField(engine, "broadcast", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		msg := L.CheckString(2)
		if m.Broadcast != nil {
			m.Broadcast(roomID, msg)
		}
		return 0
	}))

	// engine.room_state(room_id, key) -> int
	L.SetField(engine, "room_state", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		key := L.CheckString(2)
		v := 0
		if m.RoomState != nil {
			v = m.RoomState(roomID, key)
		}
		L.Push(lua.LNumber(v))
		return 1
	}))

	// engine.add_room_state(room_id, key, delta)
	L.SetField(engine, "add_room_state", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		key := L.CheckString(2)
		delta := L.CheckInt(3)
		if m.AddRoomState != nil {
			m.AddRoomState(roomID, key, delta)
		}
		return 0
	}))

	// engine.set_world_flag(name) arms a one-shot animation flag
	L.SetField(engine, "set_world_flag", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if m.SetWorldFlag != nil {
			m.SetWorldFlag(name)
		}
		return 0
	}))

	L.SetGlobal("engine", engine)
}
