package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/provider"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "conf/config.json"

type ApiConf struct {
	Key      string `json:"key" yaml:"key"`
	EngineId string `json:"engine,omitempty" yaml:"engine,omitempty"`
	BaseUrl  string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
}

type AiConf struct {
	APIKey    string `json:"key" yaml:"key"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseUrl   string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
}

type Config struct {
	Google    ApiConf `json:"google.com" yaml:"google.com"`
	Unsplash  ApiConf `json:"unsplash.com" yaml:"unsplash.com"`
	Pixabay   ApiConf `json:"pixabay.com" yaml:"pixabay.com"`
	Pexels    ApiConf `json:"pexels.com" yaml:"pexels.com"`
	Freepik   ApiConf `json:"freepik.com" yaml:"freepik.com"`
	Envato    ApiConf `json:"envato.com" yaml:"envato.com"`
	OpenAI    AiConf  `json:"openai.com" yaml:"openai.com"`
	Anthropic AiConf  `json:"anthropic.com" yaml:"anthropic.com"`
	Gemini    AiConf  `json:"gemini" yaml:"gemini"`
	Drive     struct {
		// Credentials is a service account key, inline JSON or a file path.
		Credentials string `json:"credentials" yaml:"credentials"`
		FolderId    string `json:"folder" yaml:"folder"`
		Impersonate string `json:"impersonate" yaml:"impersonate"`
	} `json:"drive" yaml:"drive"`
	Server struct {
		Addr string `json:"addr" yaml:"addr"`
	} `json:"server" yaml:"server"`
	Transfer struct {
		Dir       string `json:"dir" yaml:"dir"`
		BatchSize int    `json:"batchSize" yaml:"batchSize"`
		PauseMs   int    `json:"pauseMs" yaml:"pauseMs"`
	} `json:"transfer" yaml:"transfer"`
	Journal struct {
		File          string `json:"file" yaml:"file"`
		RetentionDays int    `json:"retentionDays" yaml:"retentionDays"`
	} `json:"journal" yaml:"journal"`
	Debug struct {
		PrettyJson bool `json:"prettyJson" yaml:"prettyJson"`
	} `json:"debug" yaml:"debug"`
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8081"
	}
	if cfg.Transfer.Dir == "" {
		cfg.Transfer.Dir = "downloads"
	}
	if cfg.Transfer.BatchSize <= 0 {
		cfg.Transfer.BatchSize = 3
	}
	if cfg.Transfer.PauseMs <= 0 {
		cfg.Transfer.PauseMs = 1000
	}
	if cfg.Journal.RetentionDays <= 0 {
		cfg.Journal.RetentionDays = 30
	}
}

func (cfg *Config) BatchPause() time.Duration {
	return time.Duration(cfg.Transfer.PauseMs) * time.Millisecond
}

func (cfg *Config) Retention() time.Duration {
	return time.Duration(cfg.Journal.RetentionDays) * 24 * time.Hour
}

// Credentials hands each media adapter its own key set.
func (cfg *Config) Credentials() map[asset.Provider]provider.Credentials {
	conv := func(c ApiConf) provider.Credentials {
		return provider.Credentials{Key: c.Key, EngineId: c.EngineId, BaseUrl: c.BaseUrl}
	}
	return map[asset.Provider]provider.Credentials{
		asset.Google:   conv(cfg.Google),
		asset.Unsplash: conv(cfg.Unsplash),
		asset.Pixabay:  conv(cfg.Pixabay),
		asset.Pexels:   conv(cfg.Pexels),
		asset.Freepik:  conv(cfg.Freepik),
		asset.Envato:   conv(cfg.Envato),
	}
}

// DriveCredentials returns the service account key bytes, reading a file
// when the setting is not inline JSON.
func (cfg *Config) DriveCredentials() ([]byte, error) {
	raw := strings.TrimSpace(cfg.Drive.Credentials)
	if raw == "" {
		return nil, errors.New("drive credentials not configured")
	}
	if strings.HasPrefix(raw, "{") {
		return []byte(raw), nil
	}
	return os.ReadFile(raw)
}

// loadConfig reads .env, the config file and the environment, in that
// order of increasing precedence. A missing default config file is not an
// error so a pure environment setup works.
func loadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	explicit := filename != ""
	if !explicit {
		filename = defaultConfigFile
	}
	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, err
	default:
		if err := decodeConfig(filename, data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg, os.LookupEnv)
	cfg.setDefaults()
	return cfg, nil
}

func decodeConfig(filename string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("unable to decode configuration file %s: %w", filename, err)
		}
		return nil
	}
	var syntaxErr *json.SyntaxError
	err := json.Unmarshal(data, cfg)
	if errors.As(err, &syntaxErr) {
		pos := findPos(bufio.NewReader(bytes.NewReader(data)), int(syntaxErr.Offset))
		return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d): %w", pos.line, pos.pos, err)
	}
	if err != nil {
		return fmt.Errorf("unable to decode configuration file %s: %w", filename, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PEXELS_API_KEY", &cfg.Pexels.Key)
	str("UNSPLASH_ACCESS_KEY", &cfg.Unsplash.Key)
	str("PIXABAY_API_KEY", &cfg.Pixabay.Key)
	str("GOOGLE_API_KEY", &cfg.Google.Key)
	str("GOOGLE_SEARCH_ENGINE_ID", &cfg.Google.EngineId)
	str("FREEPIK_API_KEY", &cfg.Freepik.Key)
	str("ENVATO_API_TOKEN", &cfg.Envato.Key)
	str("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	str("ANTHROPIC_API_KEY", &cfg.Anthropic.APIKey)
	str("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	str("GOOGLE_CREDENTIALS", &cfg.Drive.Credentials)
	str("GDRIVE_FOLDER_ID", &cfg.Drive.FolderId)
	str("GDRIVE_IMPERSONATE", &cfg.Drive.Impersonate)
	if v, ok := lookup("MAGICSEARCH_ADDR"); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("MAGICSEARCH_RETENTION_DAYS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Journal.RetentionDays = n
		}
	}
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
