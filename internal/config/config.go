package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "vidcoord.cfg.json"

// ProbeConfig holds frame rate estimation settings
type ProbeConfig struct {
	Default       float64       `json:"default" mapstructure:"default"`
	SnapTolerance float64       `json:"snapTolerance" mapstructure:"snapTolerance"`
	OnLoad        bool          `json:"onLoad" mapstructure:"onLoad"`
	Window        time.Duration `json:"window" mapstructure:"window"`
	Samples       int           `json:"samples" mapstructure:"samples"`
	SampleTimeout time.Duration `json:"sampleTimeout" mapstructure:"sampleTimeout"`
	PixelStride   int           `json:"pixelStride" mapstructure:"pixelStride"`
	Method        string        `json:"method" mapstructure:"method"`
}

// SQLiteConfig holds settings for the sqlite measurement log
type SQLiteConfig struct {
	// Path is the database file; empty keeps the log in memory.
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects the measurement log backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// ExportConfig holds export settings
type ExportConfig struct {
	Compress bool `json:"compress" mapstructure:"compress"`
}

// MediaConfig holds the external decoder tools
type MediaConfig struct {
	FFmpegPath  string `json:"ffmpegPath" mapstructure:"ffmpegPath"`
	FFprobePath string `json:"ffprobePath" mapstructure:"ffprobePath"`
}

// MonitorConfig holds the status heartbeat settings
type MonitorConfig struct {
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds measurement telemetry settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the server address built from protocol, host and port.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./vidcoordlogs")

	viper.SetDefault("frameRate.default", 30.0)
	viper.SetDefault("frameRate.snapTolerance", 1.0)
	viper.SetDefault("frameRate.probe.onLoad", true)
	viper.SetDefault("frameRate.probe.window", "500ms")
	viper.SetDefault("frameRate.probe.samples", 101)
	viper.SetDefault("frameRate.probe.sampleTimeout", "2s")
	viper.SetDefault("frameRate.probe.pixelStride", 7)
	viper.SetDefault("frameRate.probe.method", "boundary-mean")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("export.compress", false)

	viper.SetDefault("media.ffmpegPath", "ffmpeg")
	viper.SetDefault("media.ffprobePath", "ffprobe")

	viper.SetDefault("monitor.interval", "10s")
	viper.SetDefault("monitor.statusFile", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "vidcoord")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "vidcoord-metrics")
	viper.SetDefault("influx.bucket", "measurements")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in
// effect when the file is missing; the error is still returned so the
// caller can log it.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetProbeConfig returns the frame rate settings
func GetProbeConfig() ProbeConfig {
	return ProbeConfig{
		Default:       viper.GetFloat64("frameRate.default"),
		SnapTolerance: viper.GetFloat64("frameRate.snapTolerance"),
		OnLoad:        viper.GetBool("frameRate.probe.onLoad"),
		Window:        viper.GetDuration("frameRate.probe.window"),
		Samples:       viper.GetInt("frameRate.probe.samples"),
		SampleTimeout: viper.GetDuration("frameRate.probe.sampleTimeout"),
		PixelStride:   viper.GetInt("frameRate.probe.pixelStride"),
		Method:        viper.GetString("frameRate.probe.method"),
	}
}

// GetStorageConfig returns the measurement log backend settings
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetExportConfig returns export settings
func GetExportConfig() ExportConfig {
	return ExportConfig{
		Compress: viper.GetBool("export.compress"),
	}
}

// GetMediaConfig returns decoder tool paths
func GetMediaConfig() MediaConfig {
	return MediaConfig{
		FFmpegPath:  viper.GetString("media.ffmpegPath"),
		FFprobePath: viper.GetString("media.ffprobePath"),
	}
}

// GetMonitorConfig returns the status heartbeat settings
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}

// GetOTelConfig returns OpenTelemetry settings
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns measurement telemetry settings
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}
