package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/atomicstack/tmux-winmsg/internal/app"
	"github.com/atomicstack/tmux-winmsg/internal/format/status"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	Flags   map[string]string
	Args    []string
	// File is the config file that was read, if any.
	File string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envSocketPath = "TMUX_WINMSG_SOCKET"
	envSession    = "TMUX_WINMSG_SESSION"
	envWindow     = "TMUX_WINMSG_WINDOW"
	envTemplate   = "TMUX_WINMSG_TEMPLATE"
	envCaption    = "TMUX_WINMSG_CAPTION"
	envWidth      = "TMUX_WINMSG_WIDTH"
	envFormat     = "TMUX_WINMSG_FORMAT"
	envInterval   = "TMUX_WINMSG_INTERVAL"
	envSettle     = "TMUX_WINMSG_SETTLE"
	envConfig     = "TMUX_WINMSG_CONFIG"
	envTrace      = "TMUX_WINMSG_TRACE"
	envLogFile    = "TMUX_WINMSG_LOG_FILE"
)

const (
	defaultTemplate = "%-w%n %t%+w"
	defaultInterval = "1s"
)

// fileConfig is the shape of the config file, TOML or YAML.
type fileConfig struct {
	Socket     string         `toml:"socket" yaml:"socket"`
	Session    string         `toml:"session" yaml:"session"`
	Window     string         `toml:"window" yaml:"window"`
	Template   string         `toml:"template" yaml:"template"`
	Caption    string         `toml:"caption" yaml:"caption"`
	Width      *int           `toml:"width" yaml:"width"`
	Format     string         `toml:"format" yaml:"format"`
	Interval   string         `toml:"interval" yaml:"interval"`
	Settle     string         `toml:"settle" yaml:"settle"`
	Renditions app.Renditions `toml:"renditions" yaml:"renditions"`
	Backticks  []app.Backtick `toml:"backtick" yaml:"backtick"`
}

// configNames are looked up under the XDG config directories when no config
// file is named.
var configNames = []string{
	"tmux-winmsg/config.toml",
	"tmux-winmsg/config.yaml",
	"tmux-winmsg/config.yml",
}

// searchConfigFile is swapped by tests.
var searchConfigFile = xdg.SearchConfigFile

func defaultConfigPath() string {
	for _, name := range configNames {
		if path, err := searchConfigFile(name); err == nil {
			return path
		}
	}
	return ""
}

func readConfigFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = toml.Unmarshal(data, &file)
	}
	if err != nil {
		return file, fmt.Errorf("parse config %s: %w", path, err)
	}
	return file, nil
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Precedence is
// flags, then environment, then the config file.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := pflag.NewFlagSet("tmux-winmsg", pflag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	fs.SortFlags = false

	socket := fs.String("socket", envOrDefault(env, envSocketPath, ""), "path to the tmux socket (overrides environment detection)")
	session := fs.String("session", envOrDefault(env, envSession, ""), "tmux session to render (default: the attached one)")
	window := fs.StringP("window", "W", envOrDefault(env, envWindow, ""), "window to render for: index, title or fuzzy title (default: active window)")
	template := fs.StringP("template", "t", envOrDefault(env, envTemplate, ""), "status line template")
	caption := fs.String("caption", envOrDefault(env, envCaption, ""), "caption template rendered after the status line")
	width := fs.IntP("width", "w", envOrInt(env, envWidth, 0), "render width in cells (0 uses terminal width)")
	format := fs.StringP("format", "f", envOrDefault(env, envFormat, string(status.FormatPlain)), "output format: plain, tmux or ansi")
	interval := fs.String("interval", envOrDefault(env, envInterval, defaultInterval), "tmux poll interval for watch and preview modes")
	settle := fs.String("settle", envOrDefault(env, envSettle, "0s"), "time to let continuous backticks produce output before rendering")
	count := fs.IntP("count", "n", 0, "stop watch mode after this many lines (0 runs until interrupted)")
	backticks := fs.StringArray("backtick", nil, `backtick definition "ID LIFESPAN TICK CMD [ARGS...]" (repeatable)`)
	monitor := fs.String("monitor-rendition", "", "attribute/color spec for windows with activity")
	bell := fs.String("bell-rendition", "", "attribute/color spec for windows with a bell")
	silence := fs.String("silence-rendition", "", "attribute/color spec for windows with silence")
	configPath := fs.StringP("config", "c", envOrDefault(env, envConfig, ""), "path to a TOML or YAML config file (default: $XDG_CONFIG_HOME/tmux-winmsg/config.toml)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, &HelpError{Usage: usage(fs)}
		}
		return Config{}, err
	}

	if *configPath == "" {
		*configPath = defaultConfigPath()
	}
	var file fileConfig
	if *configPath != "" {
		var err error
		if file, err = readConfigFile(*configPath); err != nil {
			return Config{}, err
		}
	}
	// unset reports whether neither the flag nor its environment variable was
	// given, leaving the config file to supply the value.
	unset := func(name, key string) bool {
		if fs.Changed(name) {
			return false
		}
		if key == "" {
			return true
		}
		_, ok := env[key]
		return !ok
	}
	fromFile := func(dst *string, name, key, value string) {
		if value != "" && unset(name, key) {
			*dst = value
		}
	}
	fromFile(socket, "socket", envSocketPath, file.Socket)
	fromFile(session, "session", envSession, file.Session)
	fromFile(window, "window", envWindow, file.Window)
	fromFile(template, "template", envTemplate, file.Template)
	fromFile(caption, "caption", envCaption, file.Caption)
	fromFile(format, "format", envFormat, file.Format)
	fromFile(interval, "interval", envInterval, file.Interval)
	fromFile(settle, "settle", envSettle, file.Settle)
	fromFile(monitor, "monitor-rendition", "", file.Renditions.Monitor)
	fromFile(bell, "bell-rendition", "", file.Renditions.Bell)
	fromFile(silence, "silence-rendition", "", file.Renditions.Silence)
	if file.Width != nil && unset("width", envWidth) {
		*width = *file.Width
	}

	rest := fs.Args()
	mode := app.ModeRender
	if len(rest) > 0 && isMode(strings.ToLower(rest[0])) {
		mode = strings.ToLower(rest[0])
		rest = rest[1:]
	}
	if len(rest) > 0 {
		if fs.Changed("template") {
			return Config{}, errors.New("template given both as argument and --template")
		}
		*template = strings.Join(rest, " ")
	}
	if *template == "" {
		*template = defaultTemplate
	}

	pollInterval, err := time.ParseDuration(*interval)
	if err != nil {
		return Config{}, fmt.Errorf("interval: %w", err)
	}
	settleFor, err := time.ParseDuration(*settle)
	if err != nil {
		return Config{}, fmt.Errorf("settle: %w", err)
	}

	defs := append([]app.Backtick(nil), file.Backticks...)
	for _, raw := range *backticks {
		bt, err := ParseBacktick(raw)
		if err != nil {
			return Config{}, err
		}
		defs = append(defs, bt)
	}

	cfg := Config{
		App: app.Config{
			Mode:       mode,
			SocketPath: *socket,
			Session:    *session,
			Window:     *window,
			Template:   *template,
			Caption:    *caption,
			Width:      *width,
			Format:     *format,
			Interval:   pollInterval,
			Settle:     settleFor,
			Count:      *count,
			Backticks:  defs,
			Renditions: app.Renditions{
				Monitor: *monitor,
				Bell:    *bell,
				Silence: *silence,
			},
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"mode":     mode,
			"socket":   *socket,
			"session":  *session,
			"window":   *window,
			"template": *template,
			"caption":  *caption,
			"width":    strconv.Itoa(*width),
			"format":   *format,
			"interval": pollInterval.String(),
			"settle":   settleFor.String(),
			"count":    strconv.Itoa(*count),
			"backtick": strconv.Itoa(len(defs)),
			"config":   *configPath,
			"trace":    strconv.FormatBool(*trace),
			"logFile":  *logFile,
		},
		Args: append([]string(nil), args...),
		File: *configPath,
	}

	return cfg, nil
}

// HelpError is returned when -h or --help was given.
type HelpError struct {
	Usage string
}

func (e *HelpError) Error() string { return "help requested" }

func (e *HelpError) Unwrap() error { return pflag.ErrHelp }

func usage(fs *pflag.FlagSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "usage: tmux-winmsg [flags] [%s] [template]\n\n", strings.Join(app.Modes, "|"))
	b.WriteString(fs.FlagUsages())
	return b.String()
}

// ParseBacktick parses "ID LIFESPAN TICK CMD [ARGS...]".
func ParseBacktick(raw string) (app.Backtick, error) {
	fields := strings.Fields(raw)
	if len(fields) < 4 {
		return app.Backtick{}, fmt.Errorf("backtick %q: want ID LIFESPAN TICK CMD [ARGS...]", raw)
	}
	nums := make([]int, 3)
	for i, name := range []string{"id", "lifespan", "tick"} {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return app.Backtick{}, fmt.Errorf("backtick %q: %s: %w", raw, name, err)
		}
		nums[i] = n
	}
	return app.Backtick{
		ID:       nums[0],
		Lifespan: nums[1],
		Tick:     nums[2],
		Command:  fields[3:],
	}, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		var help *HelpError
		if errors.As(err, &help) {
			fmt.Fprint(os.Stdout, help.Usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures the configuration can be run.
func Validate(cfg Config) error {
	a := cfg.App
	if !isMode(a.Mode) {
		return fmt.Errorf("unknown mode %q (want one of %s)", a.Mode, strings.Join(app.Modes, ", "))
	}
	if _, err := status.ParseFormat(a.Format); err != nil {
		return err
	}
	if a.Width < 0 {
		return fmt.Errorf("width must be >= 0 (got %d)", a.Width)
	}
	if a.Count < 0 {
		return fmt.Errorf("count must be >= 0 (got %d)", a.Count)
	}
	if a.Interval < 0 || a.Settle < 0 {
		return errors.New("interval and settle must not be negative")
	}
	for _, bt := range a.Backticks {
		if bt.ID < 0 || bt.Lifespan < 0 || bt.Tick < 0 {
			return fmt.Errorf("backtick %d: id, lifespan and tick must be >= 0", bt.ID)
		}
		if len(bt.Command) == 0 || bt.Command[0] == "" {
			return fmt.Errorf("backtick %d: empty command", bt.ID)
		}
	}
	return nil
}

func isMode(name string) bool {
	for _, m := range app.Modes {
		if name == m {
			return true
		}
	}
	return false
}
