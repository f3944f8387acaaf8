package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalInstaller   = "exinstall"
	luaFieldBuildRoot    = "build_root"
	luaFieldBuildDir     = "build_dir"
	luaFieldTimeout      = "timeout"
	luaFieldRetries      = "retries"
	luaFieldRepository   = "repository"
	luaFieldTagsURL      = "tags_url"
	luaFieldArchive      = "archive_prefix"
	luaFieldName         = "name"
	luaFieldChannels     = "channels"
	luaFieldTool         = "tool"
	luaFieldCacheDir     = "cache_dir"
	luaFieldURLs         = "urls"
	luaFieldChecksumURL  = "checksum_url"
	luaFieldSignatureURL = "signature_url"
	luaFieldKeyring      = "keyring"
	luaFieldOutput       = "output"
	luaFieldQuiet        = "quiet"
	luaFieldVerbose      = "verbose"
	luaFieldColor        = "color"
)

// Defaults for the DCC-EX CommandStation-EX project.
const (
	DefaultTagsURL       = "https://api.github.com/repos/DCC-EX/CommandStation-EX/git/refs/tags"
	DefaultArchivePrefix = "https://github.com/DCC-EX/CommandStation-EX/archive/"
	DefaultRepoName      = "CommandStation-EX"
	DefaultToolName      = "arduino-cli"
	DefaultToolCacheName = "arduino-cli_installer"
	DefaultTimeout       = 5 * time.Minute

	// UserAgent is sent with every HTTP request the installer makes.
	UserAgent = "exinstall/1.0"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "EXINSTALL_CONFIG"
	// DefaultConfigPath is used when neither flag nor environment names a file.
	DefaultConfigPath = "~/.config/exinstall/exinstall.lua"
)

// Resource limits
const (
	MaxConfigSize = 1 << 20
	MaxRetries    = 10
)
