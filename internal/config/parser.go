package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/exinstall/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser represents a Lua config parser with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table out of the Lua state.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile reads and parses a Lua config file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxConfigSize),
		}
	}

	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string. Values absent from the
// script keep their defaults.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "exinstall" table over the defaults.
func extractConfig(L *lua.LState) (*Config, error) {
	root := L.GetGlobal(luaGlobalInstaller)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalInstaller),
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	cfg := Default()
	table := root.(*lua.LTable)

	setString(table, luaFieldBuildRoot, &cfg.BuildRoot)
	setString(table, luaFieldBuildDir, &cfg.BuildDir)

	if v := table.RawGetString(luaFieldTimeout); v.Type() == lua.LTNumber {
		cfg.Timeout = time.Duration(float64(lua.LVAsNumber(v)) * float64(time.Second))
	}
	if v := table.RawGetString(luaFieldRetries); v.Type() == lua.LTNumber {
		cfg.Retries = int(lua.LVAsNumber(v))
	}

	if repo, ok := table.RawGetString(luaFieldRepository).(*lua.LTable); ok {
		setString(repo, luaFieldTagsURL, &cfg.Repository.TagsURL)
		setString(repo, luaFieldArchive, &cfg.Repository.ArchivePrefix)
		setString(repo, luaFieldName, &cfg.Repository.Name)
	}

	if channels, ok := table.RawGetString(luaFieldChannels).(*lua.LTable); ok {
		limits, err := extractChannels(channels)
		if err != nil {
			return nil, err
		}
		cfg.Channels = limits
	}

	if tool, ok := table.RawGetString(luaFieldTool).(*lua.LTable); ok {
		setString(tool, luaFieldName, &cfg.Tool.Name)
		setString(tool, luaFieldCacheDir, &cfg.Tool.CacheDir)
		setString(tool, luaFieldChecksumURL, &cfg.Tool.ChecksumURL)
		setString(tool, luaFieldSignatureURL, &cfg.Tool.SignatureURL)
		setString(tool, luaFieldKeyring, &cfg.Tool.Keyring)
		if urls, ok := tool.RawGetString(luaFieldURLs).(*lua.LTable); ok {
			cfg.Tool.URLs = extractStringMap(urls)
		}
	}

	if out, ok := table.RawGetString(luaFieldOutput).(*lua.LTable); ok {
		setBool(out, luaFieldQuiet, &cfg.Output.Quiet)
		setBool(out, luaFieldVerbose, &cfg.Output.Verbose)
		if v := out.RawGetString(luaFieldColor); v.Type() == lua.LTBool {
			cfg.Output.NoColor = !bool(v.(lua.LBool))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return cfg, nil
}

// extractChannels reads { Prod = 2, Devel = 2 }. A nil value (from a
// platform conditional) drops the channel.
func extractChannels(table *lua.LTable) (map[string]int, error) {
	limits := make(map[string]int)
	var err error

	table.ForEach(func(key, value lua.LValue) {
		if err != nil || value.Type() == lua.LTNil {
			return
		}
		if key.Type() != lua.LTString || value.Type() != lua.LTNumber {
			err = &ParseError{
				Message: "invalid channels table",
				Detail:  fmt.Sprintf("expected name = number, got %s = %s", key.Type(), value.Type()),
			}
			return
		}
		limits[key.String()] = int(lua.LVAsNumber(value))
	})

	return limits, err
}

// extractStringMap keeps string-to-string pairs and drops everything else.
func extractStringMap(table *lua.LTable) map[string]string {
	out := make(map[string]string)
	table.ForEach(func(key, value lua.LValue) {
		if key.Type() == lua.LTString && value.Type() == lua.LTString {
			out[key.String()] = value.String()
		}
	})
	return out
}

func setString(table *lua.LTable, field string, dst *string) {
	if v := table.RawGetString(field); v.Type() == lua.LTString {
		*dst = v.String()
	}
}

func setBool(table *lua.LTable, field string, dst *bool) {
	if v := table.RawGetString(field); v.Type() == lua.LTBool {
		*dst = bool(v.(lua.LBool))
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
