package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shinji-kodama/mdpipe/internal/formatter"
	"github.com/shinji-kodama/mdpipe/internal/hooks"
	"github.com/shinji-kodama/mdpipe/internal/language"
	"github.com/shinji-kodama/mdpipe/internal/model"
)

const (
	// EnvPrefix is the prefix for environment variable overrides, so
	// "timeout" is set via MDPIPE_TIMEOUT.
	EnvPrefix = "MDPIPE"

	// DefaultFileName is the config file searched for upward from the
	// working directory when --config is not given.
	DefaultFileName = ".mdpipe.toml"

	// DefaultToolConfigName is the formatter suite's own config file,
	// discovered by the same upward search when tool_config is unset.
	DefaultToolConfigName = "mdsf.json"
)

// Config is the fully merged and validated per-run configuration.
type Config struct {
	// Timeout bounds each formatter invocation.
	Timeout time.Duration

	// HookTimeout bounds each hook invocation. Zero falls back to
	// Timeout.
	HookTimeout time.Duration

	// Enabled is the language allow-list. Empty means every supported
	// language is formatted.
	Enabled map[language.Key]struct{}

	// FailOnError aborts the run on the first formatter failure instead
	// of falling back to the original block content.
	FailOnError bool

	// Tool is the formatter suite command template. Empty means the
	// built-in mdsf invocation.
	Tool string

	// ToolConfig is the path handed to the suite via the {config}
	// placeholder, or appended as --config to the default tool.
	ToolConfig string

	// Overrides maps canonical language keys to per-language commands
	// that replace the suite for those blocks.
	Overrides map[language.Key]string

	// PreCommand and PostCommand are the hook shell commands. Empty
	// means the stage passes text through unchanged.
	PreCommand  string
	PostCommand string

	// StrictHooks escalates hook failures into aborting the run.
	StrictHooks bool

	// NormalizeFrontMatter re-encodes a leading YAML front matter block
	// in canonical form.
	NormalizeFrontMatter bool
}

// Load merges flags, environment, an optional TOML file, and defaults
// into a validated Config. cfgFile, when non-empty, names the config
// file explicitly; otherwise DefaultFileName is searched for upward
// from workDir. flags may be nil when no command-line surface is in
// play (tests, library use).
func Load(cfgFile, workDir string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("cannot read config file %s", cfgFile), err)
		}
	} else if found, ok := findUp(workDir, DefaultFileName); ok {
		v.SetConfigFile(found)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("cannot read config file %s", found), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	return materialize(v, workDir)
}

// setDefaults seeds the lowest precedence layer. The MDSF compatibility
// variables live here so any mdpipe-native source overrides them.
func setDefaults(v *viper.Viper) {
	timeout := int(formatter.DefaultTimeout / time.Second)
	if raw := os.Getenv("MDSF_TIMEOUT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			timeout = parsed
		}
	}
	v.SetDefault("timeout", timeout)
	v.SetDefault("hook_timeout", 0)
	v.SetDefault("languages", []string{})
	v.SetDefault("fail_on_error", false)
	v.SetDefault("tool", formatter.DefaultTool)
	v.SetDefault("tool_config", os.Getenv("MDSF_CONFIG"))
	v.SetDefault("formatters", map[string]string{})
	v.SetDefault("pre_command", "")
	v.SetDefault("post_command", "")
	v.SetDefault("strict_hooks", false)
	v.SetDefault("normalize_front_matter", false)
}

// bindFlags wires the format command's flag set into viper. Flag names
// use dashes; config keys use underscores, so each binding is explicit.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	bindings := map[string]string{
		"timeout":                "timeout",
		"hook_timeout":           "hook-timeout",
		"languages":              "language",
		"fail_on_error":          "fail-on-error",
		"tool":                   "tool",
		"tool_config":            "tool-config",
		"pre_command":            "pre-command",
		"post_command":           "post-command",
		"strict_hooks":           "strict-hooks",
		"normalize_front_matter": "normalize-front-matter",
	}
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func materialize(v *viper.Viper, workDir string) (Config, error) {
	cfg := Config{
		Timeout:              time.Duration(v.GetInt("timeout")) * time.Second,
		HookTimeout:          time.Duration(v.GetInt("hook_timeout")) * time.Second,
		FailOnError:          v.GetBool("fail_on_error"),
		Tool:                 v.GetString("tool"),
		ToolConfig:           v.GetString("tool_config"),
		PreCommand:           v.GetString("pre_command"),
		PostCommand:          v.GetString("post_command"),
		StrictHooks:          v.GetBool("strict_hooks"),
		NormalizeFrontMatter: v.GetBool("normalize_front_matter"),
	}

	if strings.TrimSpace(cfg.Tool) == "" {
		return Config{}, model.NewCLIError(model.ExitConfigError, "tool command must not be empty")
	}
	if cfg.Timeout <= 0 {
		return Config{}, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("timeout must be positive, got %d", v.GetInt("timeout")))
	}
	if cfg.HookTimeout < 0 {
		return Config{}, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("hook_timeout must not be negative, got %d", v.GetInt("hook_timeout")))
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = cfg.Timeout
	}

	enabled, err := resolveLanguages(v.GetStringSlice("languages"))
	if err != nil {
		return Config{}, err
	}
	cfg.Enabled = enabled

	overrides, err := resolveOverrides(v.GetStringMapString("formatters"))
	if err != nil {
		return Config{}, err
	}
	cfg.Overrides = overrides

	if cfg.ToolConfig == "" {
		if found, ok := findUp(workDir, DefaultToolConfigName); ok {
			cfg.ToolConfig = found
		}
	}
	return cfg, nil
}

// resolveLanguages canonicalizes the allow-list. Entries may be
// comma-separated to support MDPIPE_LANGUAGES=python,go from the
// environment, where repeated flags are unavailable.
func resolveLanguages(entries []string) (map[language.Key]struct{}, error) {
	enabled := make(map[language.Key]struct{})
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key, ok := language.Resolve(part)
			if !ok {
				return nil, model.NewCLIError(model.ExitConfigError,
					fmt.Sprintf("unknown language %q in allow-list (known: %s)",
						part, knownKeys()))
			}
			enabled[key] = struct{}{}
		}
	}
	return enabled, nil
}

func resolveOverrides(raw map[string]string) (map[language.Key]string, error) {
	overrides := make(map[language.Key]string, len(raw))
	for tag, command := range raw {
		key, ok := language.Resolve(tag)
		if !ok {
			return nil, model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("unknown language %q in formatters table (known: %s)",
					tag, knownKeys()))
		}
		if strings.TrimSpace(command) == "" {
			return nil, model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("formatter override for %q is empty", tag))
		}
		overrides[key] = command
	}
	return overrides, nil
}

func knownKeys() string {
	keys := language.Supported()
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = key.String()
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Invocation adapts the merged configuration to the formatter layer.
func (c Config) Invocation() formatter.Invocation {
	return formatter.Invocation{
		Tool:           c.Tool,
		ToolConfigPath: c.ToolConfig,
		Overrides:      c.Overrides,
		Timeout:        c.Timeout,
		Enabled:        c.Enabled,
		FailOnError:    c.FailOnError,
	}
}

// Hooks adapts the merged configuration to the hook pipeline.
func (c Config) Hooks() hooks.Config {
	return hooks.Config{
		PreCommand:  c.PreCommand,
		PostCommand: c.PostCommand,
		Timeout:     c.HookTimeout,
		Strict:      c.StrictHooks,
	}
}

// findUp walks from startDir toward the filesystem root looking for a
// regular file named name, returning the first match.
func findUp(startDir, name string) (string, bool) {
	dir := startDir
	if dir == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
