package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable exposes info to config code as the read-only global
// "platform". It must run before the config chunk is executed.
//
// Besides the raw fields, platform.key matches the "<os>/<arch>" keys of
// tool.urls, and platform.exe(name) appends ".exe" on Windows.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	fields := L.NewTable()

	fields.RawSetString("os", lua.LString(info.OS))
	fields.RawSetString("arch", lua.LString(info.Arch))
	fields.RawSetString("arch_raw", lua.LString(info.ArchRaw))
	fields.RawSetString("word_size", lua.LNumber(info.WordSize))
	fields.RawSetString("key", lua.LString(info.Key()))

	fields.RawSetString("is_linux", lua.LBool(info.IsLinux()))
	fields.RawSetString("is_macos", lua.LBool(info.IsMacOS()))
	fields.RawSetString("is_windows", lua.LBool(info.IsWindows()))
	fields.RawSetString("is_64bit", lua.LBool(info.Is64Bit()))

	// when(cond, value) yields value or nil, so a table entry can be
	// dropped per platform: channels = { Devel = platform.when(x, 1) }.
	fields.RawSetString("when", L.NewFunction(func(L *lua.LState) int {
		if L.CheckBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	fields.RawSetString("exe", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(info.ExecutableName(L.CheckString(1))))
		return 1
	}))

	L.SetGlobal("platform", readOnlyProxy(L, fields))
	return nil
}

// readOnlyProxy wraps fields in an empty table whose metatable forwards
// reads and raises on writes.
func readOnlyProxy(L *lua.LState, fields *lua.LTable) *lua.LTable {
	meta := L.NewTable()
	meta.RawSetString("__index", fields)
	meta.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform is read-only")
		return 0
	}))
	meta.RawSetString("__metatable", lua.LString("locked"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, meta)
	return proxy
}
