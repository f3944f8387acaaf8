// Package config loads the installer configuration.
//
// Settings come from three layers, later ones winning: built-in defaults
// for the DCC-EX CommandStation-EX project, an optional Lua file, and
// command-line flags applied by the caller.
//
// # Lua files
//
// The file assigns a global exinstall table:
//
//	exinstall = {
//	    build_root = "~/dcc-ex",
//	    timeout = 120,                 -- seconds
//	    channels = { Prod = 3, Devel = 1 },
//	    tool = {
//	        urls = {
//	            ["linux/arm"] = "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_Linux_ARMv7.tar.gz",
//	        },
//	    },
//	    output = { color = platform.is_windows == false },
//	}
//
// Scripts run in a sandboxed gopher-lua VM with os, io, debug and every
// code-loading function removed. A read-only platform table (os, arch,
// word_size, is_windows, is_linux, is_macos, is_64bit, when) is injected
// first so configs can branch on the host.
package config
