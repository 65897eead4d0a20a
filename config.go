package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
)

// AppConfig holds all server configuration.
// Later layers win: defaults, env vars, JSON config file, CLI flags.
type AppConfig struct {
	// Server
	DB   string `json:"db"`   // database connection string
	Dev  bool   `json:"dev"`  // dev mode: verbose logging, db dumps on errors
	Addr string `json:"addr"` // HTTP listen address

	// Chat
	GameRooms []string `json:"game_rooms"` // rooms that host a mafia game
	Admins    []string `json:"admins"`     // account names allowed to moderate games

	// Logging (extended diagnostics, off by default)
	LogOutputDir  string `json:"log_output_dir"`
	LogRequests   bool   `json:"log_requests"`
	LogBroadcasts bool   `json:"log_broadcasts"`
	LogDB         bool   `json:"log_db"`
	LogWS         bool   `json:"log_ws"`
	LogDebug      bool   `json:"log_debug"`

	// AI Storyteller
	StorytellerProvider    string `json:"storyteller_provider"`    // ollama | openai | claude | gemini | groq | openai-compatible
	StorytellerModel       string `json:"storyteller_model"`       // model name
	StorytellerOllamaURL   string `json:"storyteller_ollama_url"`  // Ollama server URL
	StorytellerURL         string `json:"storyteller_url"`         // base URL for openai-compatible
	StorytellerAPIKey      string `json:"storyteller_api_key"`     // API key for openai-compatible
	StorytellerTemperature string `json:"storyteller_temperature"` // float 0-1 as string
	StorytellerThinking    string `json:"storyteller_thinking"`    // none | low | medium | high | auto
	GroqAPIKey             string `json:"groq_api_key"`            // API key for groq provider
}

func (cfg AppConfig) toLogConfig() LogConfig {
	return LogConfig{
		OutputDir:     cfg.LogOutputDir,
		LogRequests:   cfg.LogRequests,
		LogBroadcasts: cfg.LogBroadcasts,
		LogDB:         cfg.LogDB,
		LogWS:         cfg.LogWS,
		Debug:         cfg.LogDebug,
	}
}

// isAdmin reports whether the account name is a configured moderator
func (cfg AppConfig) isAdmin(name string) bool {
	for _, a := range cfg.Admins {
		if toID(a) == toID(name) {
			return true
		}
	}
	return false
}

func defaultConfig() AppConfig {
	return AppConfig{
		DB:                   "file::memory:?cache=shared",
		Addr:                 ":8080",
		GameRooms:            []string{"mafia"},
		StorytellerOllamaURL: "http://localhost:11434",
	}
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// setting binds one AppConfig field to its JSON key. The env var is the key
// upper-cased, the flag is the key with dashes. Exactly one accessor is set.
type setting struct {
	key     string
	usage   string
	str     func(*AppConfig) *string
	boolean func(*AppConfig) *bool
	list    func(*AppConfig) *[]string
}

func (s setting) envName() string  { return strings.ToUpper(s.key) }
func (s setting) flagName() string { return strings.ReplaceAll(s.key, "_", "-") }

// parse stores a raw env or flag value
func (s setting) parse(cfg *AppConfig, v string) {
	switch {
	case s.str != nil:
		*s.str(cfg) = v
	case s.boolean != nil:
		*s.boolean(cfg) = v == "1" || v == "true" || v == "yes"
	case s.list != nil:
		*s.list(cfg) = splitList(v)
	}
}

func (s setting) decode(cfg *AppConfig, raw json.RawMessage) error {
	switch {
	case s.str != nil:
		return json.Unmarshal(raw, s.str(cfg))
	case s.boolean != nil:
		return json.Unmarshal(raw, s.boolean(cfg))
	default:
		return json.Unmarshal(raw, s.list(cfg))
	}
}

func strSetting(key, usage string, f func(*AppConfig) *string) setting {
	return setting{key: key, usage: usage, str: f}
}

func boolSetting(key, usage string, f func(*AppConfig) *bool) setting {
	return setting{key: key, usage: usage, boolean: f}
}

func listSetting(key, usage string, f func(*AppConfig) *[]string) setting {
	return setting{key: key, usage: usage, list: f}
}

var settings = []setting{
	strSetting("db", "database connection string", func(c *AppConfig) *string { return &c.DB }),
	boolSetting("dev", "enable development mode (verbose logging, db dumps on error)", func(c *AppConfig) *bool { return &c.Dev }),
	strSetting("addr", "HTTP listen address (e.g. :8080)", func(c *AppConfig) *string { return &c.Addr }),
	listSetting("game_rooms", "comma-separated rooms that host mafia games", func(c *AppConfig) *[]string { return &c.GameRooms }),
	listSetting("admins", "comma-separated account names allowed to moderate", func(c *AppConfig) *[]string { return &c.Admins }),

	strSetting("log_output_dir", "directory for extended log files", func(c *AppConfig) *string { return &c.LogOutputDir }),
	boolSetting("log_requests", "log HTTP requests and responses", func(c *AppConfig) *bool { return &c.LogRequests }),
	boolSetting("log_broadcasts", "log room broadcasts", func(c *AppConfig) *bool { return &c.LogBroadcasts }),
	boolSetting("log_db", "log database dumps", func(c *AppConfig) *bool { return &c.LogDB }),
	boolSetting("log_ws", "log WebSocket messages", func(c *AppConfig) *bool { return &c.LogWS }),
	boolSetting("log_debug", "enable debug logging", func(c *AppConfig) *bool { return &c.LogDebug }),

	strSetting("storyteller_provider", "storyteller provider ("+strings.Join(providerNames(), "|")+")", func(c *AppConfig) *string { return &c.StorytellerProvider }),
	strSetting("storyteller_model", "storyteller model name", func(c *AppConfig) *string { return &c.StorytellerModel }),
	strSetting("storyteller_ollama_url", "Ollama server URL", func(c *AppConfig) *string { return &c.StorytellerOllamaURL }),
	strSetting("storyteller_url", "base URL for openai-compatible provider", func(c *AppConfig) *string { return &c.StorytellerURL }),
	strSetting("storyteller_api_key", "API key for openai-compatible provider", func(c *AppConfig) *string { return &c.StorytellerAPIKey }),
	strSetting("storyteller_temperature", "sampling temperature 0-1", func(c *AppConfig) *string { return &c.StorytellerTemperature }),
	strSetting("storyteller_thinking", "thinking mode: none|low|medium|high|auto", func(c *AppConfig) *string { return &c.StorytellerThinking }),
	strSetting("groq_api_key", "Groq API key", func(c *AppConfig) *string { return &c.GroqAPIKey }),
}

// loadConfig layers env vars and then the JSON config file over the defaults.
// CLI flags go on top with flagValues.applyTo once the flag set is parsed.
func loadConfig(configPath string) AppConfig {
	cfg := defaultConfig()

	for _, s := range settings {
		if v := os.Getenv(s.envName()); v != "" {
			s.parse(&cfg, v)
		}
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		log.Printf("Config: failed to read %s: %v", configPath, err)
	default:
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(data, &overlay); err != nil {
			log.Printf("Config: failed to parse %s: %v", configPath, err)
			break
		}
		applyJSONOverlay(&cfg, overlay)
		log.Printf("Config: loaded from %s", configPath)
	}
	return cfg
}

// applyJSONOverlay sets only the keys present in m. Unknown keys and values
// of the wrong type are logged and skipped.
func applyJSONOverlay(cfg *AppConfig, m map[string]json.RawMessage) {
	known := make(map[string]bool, len(settings))
	for _, s := range settings {
		known[s.key] = true
		raw, ok := m[s.key]
		if !ok {
			continue
		}
		if err := s.decode(cfg, raw); err != nil {
			log.Printf("Config: ignoring %s: %v", s.key, err)
		}
	}
	for key := range m {
		if !known[key] {
			log.Printf("Config: unknown key %q", key)
		}
	}
}

// flagValues remembers how to copy each parsed flag into an AppConfig.
type flagValues struct {
	configPath *string
	apply      map[string]func(*AppConfig)
}

// registerFlags defines -config plus one flag per setting on fs.
func registerFlags(fs *flag.FlagSet) flagValues {
	fv := flagValues{
		configPath: fs.String("config", "config.json", "path to JSON config file"),
		apply:      make(map[string]func(*AppConfig), len(settings)),
	}
	for _, s := range settings {
		s := s
		name := s.flagName()
		if s.boolean != nil {
			v := fs.Bool(name, false, s.usage)
			fv.apply[name] = func(cfg *AppConfig) { *s.boolean(cfg) = *v }
			continue
		}
		v := fs.String(name, "", s.usage)
		fv.apply[name] = func(cfg *AppConfig) { s.parse(cfg, *v) }
	}
	return fv
}

// applyTo overlays the flags that were passed on the command line.
func (fv flagValues) applyTo(fs *flag.FlagSet, cfg *AppConfig) {
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := fv.apply[f.Name]; ok {
			apply(cfg)
		}
	})
}
