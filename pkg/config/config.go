/*
Package config manages TOML config for PlumeServe services.
*/
package config

import (
	"math"
	"os"
	"path/filepath"

	"github.com/bastiangx/plumeserve/internal/utils"
	"github.com/charmbracelet/log"
)

// MaxResultLimit is the largest max_limit accepted, result ranks are uint16.
const MaxResultLimit = math.MaxUint16

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Index  IndexConfig  `toml:"index"`
	Data   DataConfig   `toml:"data"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit     int `toml:"max_limit"`
	DefaultLimit int `toml:"default_limit"`
	MinPrefix    int `toml:"min_prefix"`
	MaxPrefix    int `toml:"max_prefix"`
}

// IndexConfig holds search index and key options.
type IndexConfig struct {
	ResultLimit int    `toml:"result_limit"`
	MaxRecords  int    `toml:"max_records"`
	Separator   string `toml:"separator"`
	IDJoiner    string `toml:"id_joiner"`
}

// DataConfig points at the plume sources, relative paths are resolved
// against the data directory.
type DataConfig struct {
	FeaturesFile  string `toml:"features_file"`
	LocationsFile string `toml:"locations_file"`
	DBFile        string `toml:"db_file"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit  int `toml:"default_limit"`
	DefaultMinLen int `toml:"default_min_len"`
	DefaultMaxLen int `toml:"default_max_len"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "plumeserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "plumeserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/plumeserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     64,
			DefaultLimit: 10,
			MinPrefix:    1,
			MaxPrefix:    120,
		},
		Index: IndexConfig{
			ResultLimit: 0,
			MaxRecords:  0,
			Separator:   "_",
			IDJoiner:    "-",
		},
		Data: DataConfig{
			FeaturesFile:  "plumes.geojson",
			LocationsFile: "locationLookup.json",
			DBFile:        "plumes.sqlite3",
		},
		CLI: CliConfig{
			DefaultLimit:  24,
			DefaultMinLen: 1,
			DefaultMaxLen: 120,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.normalize()
	return config, nil
}

// tryPartialParse attempts to parse a TOML file section by section
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	if indexSection, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(indexSection, &config.Index)
	}
	if dataSection, ok := utils.ExtractSection(tempConfig, "data"); ok {
		extractDataConfig(dataSection, &config.Data)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	config.normalize()
	return config, nil
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		server.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
}

// extractIndexConfig extracts index configuration from a map
func extractIndexConfig(data map[string]any, index *IndexConfig) {
	if val, ok := utils.ExtractInt64(data, "result_limit"); ok {
		index.ResultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_records"); ok {
		index.MaxRecords = val
	}
	if val, ok := utils.ExtractString(data, "separator"); ok {
		index.Separator = val
	}
	if val, ok := utils.ExtractString(data, "id_joiner"); ok {
		index.IDJoiner = val
	}
}

// extractDataConfig extracts data source paths from a map
func extractDataConfig(data map[string]any, dc *DataConfig) {
	if val, ok := utils.ExtractString(data, "features_file"); ok {
		dc.FeaturesFile = val
	}
	if val, ok := utils.ExtractString(data, "locations_file"); ok {
		dc.LocationsFile = val
	}
	if val, ok := utils.ExtractString(data, "db_file"); ok {
		dc.DBFile = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_min_len"); ok {
		cli.DefaultMinLen = val
	}
	if val, ok := utils.ExtractInt64(data, "default_max_len"); ok {
		cli.DefaultMaxLen = val
	}
}

// normalize repairs values that would make the codec or server unusable.
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.Index.Separator == "" || c.Index.IDJoiner == "" || c.Index.Separator == c.Index.IDJoiner {
		log.Warnf("Invalid key separators %q/%q, using defaults", c.Index.Separator, c.Index.IDJoiner)
		c.Index.Separator = defaults.Index.Separator
		c.Index.IDJoiner = defaults.Index.IDJoiner
	}
	if c.Server.MaxLimit < 1 {
		c.Server.MaxLimit = defaults.Server.MaxLimit
	}
	if c.Server.MaxLimit > MaxResultLimit {
		log.Warnf("max_limit %d above %d, capping", c.Server.MaxLimit, MaxResultLimit)
		c.Server.MaxLimit = MaxResultLimit
	}
	if c.Server.DefaultLimit < 1 || c.Server.DefaultLimit > c.Server.MaxLimit {
		c.Server.DefaultLimit = min(defaults.Server.DefaultLimit, c.Server.MaxLimit)
	}
	if c.Server.MinPrefix < 0 {
		c.Server.MinPrefix = 0
	}
	if c.Server.MaxPrefix < c.Server.MinPrefix {
		log.Warnf("max_prefix %d below min_prefix %d, using defaults", c.Server.MaxPrefix, c.Server.MinPrefix)
		c.Server.MinPrefix = defaults.Server.MinPrefix
		c.Server.MaxPrefix = defaults.Server.MaxPrefix
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the server limits and saves to file
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if minPrefix != nil {
		server.MinPrefix = *minPrefix
	}
	if maxPrefix != nil {
		server.MaxPrefix = *maxPrefix
	}
	c.normalize()
	return SaveConfig(c, configPath)
}
