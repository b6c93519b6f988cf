package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/holthome/backupctl/internal/types"
	"github.com/holthome/backupctl/pkg/utils"
)

// Config holds the orchestrator's runtime configuration, read from an
// env-style file (KEY=value, # comments). Environment variables with the
// same keys take precedence over the file.
type Config struct {
	ConfigPath string

	// Logging
	LogLevel types.LogLevel
	UseColor bool

	// External unit interface
	SnapshotUnit        string
	ReplicationPattern  string
	ReplicationExcludes []string
	DatabaseUnit        string
	FileBackupPattern   string

	// Timing
	PollInterval       time.Duration
	SnapshotTimeout    time.Duration
	ReplicationTimeout time.Duration
	DatabaseTimeout    time.Duration
	FileBackupTimeout  time.Duration

	// Concurrency (0 = unbounded)
	ReplicationLimit int
	FileBackupLimit  int

	// Preflight
	PreflightTargets []PreflightTarget

	// Metrics (node_exporter textfile collector); empty disables export
	MetricsPath string

	// Webhook notification endpoint; empty disables delivery
	WebhookURL string

	// Status dashboard
	PrometheusURL    string
	PrometheusAPIKey string

	raw map[string]string
}

// PreflightTarget is a filesystem path that must have a minimum amount of
// free capacity before any unit is started.
type PreflightTarget struct {
	Path  string
	MinGB float64
}

// Defaults match the unit naming used by the hosts' backup modules.
const (
	defaultSnapshotUnit       = "sanoid.service"
	defaultReplicationPattern = "syncoid-*.service"
	defaultDatabaseUnit       = "pgbackrest-backup-full.service"
	defaultFileBackupPattern  = "restic-backup-*.service"
	defaultPrometheusURL      = "http://localhost:9090"
)

var defaultReplicationExcludes = []string{"-monitor", "-ping"}

// LoadConfig reads the configuration file. A missing file is not an error:
// the defaults describe a standard host and env vars may still override them.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		ConfigPath: configPath,
		raw:        make(map[string]string),
	}

	if utils.FileExists(configPath) {
		rawValues, err := parseEnvFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg.raw = rawValues
	}

	// Override with environment variables (env vars take precedence over file)
	cfg.loadEnvOverrides()

	if err := cfg.parse(); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvOverrides checks for environment variables and overrides config file values
func (c *Config) loadEnvOverrides() {
	envKeys := []string{
		"LOG_LEVEL", "USE_COLOR",
		"SNAPSHOT_UNIT", "REPLICATION_PATTERN", "REPLICATION_EXCLUDES",
		"DATABASE_UNIT", "FILE_BACKUP_PATTERN",
		"POLL_INTERVAL_SECONDS",
		"SNAPSHOT_TIMEOUT_MINUTES", "REPLICATION_TIMEOUT_MINUTES",
		"DATABASE_TIMEOUT_MINUTES", "FILE_BACKUP_TIMEOUT_MINUTES",
		"REPLICATION_PARALLEL_LIMIT", "FILE_BACKUP_PARALLEL_LIMIT",
		"PREFLIGHT_TARGETS", "MIN_DISK_SPACE_GB",
		"METRICS_PATH", "WEBHOOK_URL",
		"PROMETHEUS_URL", "PROMETHEUS_API_KEY",
	}

	for _, key := range envKeys {
		if envValue := os.Getenv(key); envValue != "" {
			c.raw[key] = envValue
		}
	}
}

// parse interprets the raw configuration values.
func (c *Config) parse() error {
	c.LogLevel = c.getLogLevel("LOG_LEVEL", types.LogLevelInfo)
	c.UseColor = c.getBool("USE_COLOR", true)

	c.SnapshotUnit = c.getString("SNAPSHOT_UNIT", defaultSnapshotUnit)
	c.ReplicationPattern = c.getString("REPLICATION_PATTERN", defaultReplicationPattern)
	c.ReplicationExcludes = c.getStringList("REPLICATION_EXCLUDES", defaultReplicationExcludes)
	c.DatabaseUnit = c.getString("DATABASE_UNIT", defaultDatabaseUnit)
	c.FileBackupPattern = c.getString("FILE_BACKUP_PATTERN", defaultFileBackupPattern)

	c.PollInterval = time.Duration(c.ensurePositiveInt("POLL_INTERVAL_SECONDS", 5)) * time.Second
	c.SnapshotTimeout = time.Duration(c.ensurePositiveInt("SNAPSHOT_TIMEOUT_MINUTES", 10)) * time.Minute
	c.ReplicationTimeout = time.Duration(c.ensurePositiveInt("REPLICATION_TIMEOUT_MINUTES", 60)) * time.Minute
	c.DatabaseTimeout = time.Duration(c.ensurePositiveInt("DATABASE_TIMEOUT_MINUTES", 120)) * time.Minute
	c.FileBackupTimeout = time.Duration(c.ensurePositiveInt("FILE_BACKUP_TIMEOUT_MINUTES", 60)) * time.Minute

	c.ReplicationLimit = c.getInt("REPLICATION_PARALLEL_LIMIT", 0)
	if c.ReplicationLimit < 0 {
		c.ReplicationLimit = 0
	}
	c.FileBackupLimit = c.getInt("FILE_BACKUP_PARALLEL_LIMIT", 3)
	if c.FileBackupLimit < 0 {
		return fmt.Errorf("FILE_BACKUP_PARALLEL_LIMIT cannot be negative")
	}

	targets, err := parsePreflightTargets(
		c.getString("PREFLIGHT_TARGETS", "/mnt/backup:50"),
		c.getFloat("MIN_DISK_SPACE_GB", 50.0),
	)
	if err != nil {
		return err
	}
	c.PreflightTargets = targets

	c.MetricsPath = c.getString("METRICS_PATH", "")
	c.WebhookURL = c.getString("WEBHOOK_URL", "")
	c.PrometheusURL = strings.TrimRight(c.getString("PROMETHEUS_URL", defaultPrometheusURL), "/")
	c.PrometheusAPIKey = c.getString("PROMETHEUS_API_KEY", "")

	if c.SnapshotUnit == "" || c.DatabaseUnit == "" {
		return fmt.Errorf("SNAPSHOT_UNIT and DATABASE_UNIT cannot be empty")
	}
	if c.ReplicationPattern == "" || c.FileBackupPattern == "" {
		return fmt.Errorf("REPLICATION_PATTERN and FILE_BACKUP_PATTERN cannot be empty")
	}

	return nil
}

// parsePreflightTargets parses "path[:minGB],path[:minGB],...". Entries
// without an explicit minimum fall back to defaultMinGB.
func parsePreflightTargets(spec string, defaultMinGB float64) ([]PreflightTarget, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var targets []PreflightTarget
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		path := entry
		minGB := defaultMinGB
		if idx := strings.LastIndex(entry, ":"); idx > 0 {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(entry[idx+1:]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid preflight target %q: %w", entry, err)
			}
			path = strings.TrimSpace(entry[:idx])
			minGB = parsed
		}

		if minGB < 0 {
			return nil, fmt.Errorf("invalid preflight target %q: negative minimum", entry)
		}
		targets = append(targets, PreflightTarget{Path: path, MinGB: minGB})
	}
	return targets, nil
}

func (c *Config) getString(key, defaultValue string) string {
	if val, ok := c.raw[key]; ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return defaultValue
}

func (c *Config) getBool(key string, defaultValue bool) bool {
	if val, ok := c.raw[key]; ok {
		return utils.ParseBool(val)
	}
	return defaultValue
}

func (c *Config) getInt(key string, defaultValue int) int {
	if val, ok := c.raw[key]; ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func (c *Config) ensurePositiveInt(key string, defaultValue int) int {
	val := c.getInt(key, defaultValue)
	if val <= 0 {
		return defaultValue
	}
	return val
}

func (c *Config) getFloat(key string, defaultValue float64) float64 {
	if val, ok := c.raw[key]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (c *Config) getStringList(key string, defaultValue []string) []string {
	val, ok := c.raw[key]
	if !ok {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) getLogLevel(key string, defaultValue types.LogLevel) types.LogLevel {
	val, ok := c.raw[key]
	if !ok {
		return defaultValue
	}
	if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
		if intVal >= int(types.LogLevelNone) && intVal <= int(types.LogLevelDebug) {
			return types.LogLevel(intVal)
		}
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "debug":
		return types.LogLevelDebug
	case "info":
		return types.LogLevelInfo
	case "warning":
		return types.LogLevelWarning
	case "error":
		return types.LogLevelError
	case "critical":
		return types.LogLevelCritical
	case "none":
		return types.LogLevelNone
	}
	return defaultValue
}

// Get returns a raw configuration value.
func (c *Config) Get(key string) (string, bool) {
	val, ok := c.raw[key]
	return val, ok
}

func parseEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}
	defer file.Close()

	raw := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if utils.IsComment(trimmed) {
			continue
		}

		key, value, ok := utils.SplitKeyValue(line)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed line %d in %s: %q", lineNo, path, trimmed)
		}

		raw[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return raw, nil
}
