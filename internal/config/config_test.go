package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"frameRate": { "default": 25, "probe": { "samples": 21 } }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 25.0, viper.GetFloat64("frameRate.default"))
	assert.Equal(t, 21, viper.GetInt("frameRate.probe.samples"))
	// untouched siblings keep their defaults
	assert.Equal(t, 7, viper.GetInt("frameRate.probe.pixelStride"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./vidcoordlogs", viper.GetString("logsDir"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, false, viper.GetBool("export.compress"))
	assert.Equal(t, "ffmpeg", viper.GetString("media.ffmpegPath"))
	assert.Equal(t, "ffprobe", viper.GetString("media.ffprobePath"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "vidcoord-metrics", viper.GetString("influx.org"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	// defaults are still usable
	assert.Equal(t, "info", GetString("logLevel"))
	assert.Equal(t, 101, GetProbeConfig().Samples)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetProbeConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, ProbeConfig{
		Default:       30,
		SnapTolerance: 1,
		OnLoad:        true,
		Window:        500 * time.Millisecond,
		Samples:       101,
		SampleTimeout: 2 * time.Second,
		PixelStride:   7,
		Method:        "boundary-mean",
	}, GetProbeConfig())
}

func TestGetProbeConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"frameRate": {
			"snapTolerance": 0.5,
			"probe": {
				"onLoad": false,
				"window": "200ms",
				"samples": 6,
				"sampleTimeout": "750ms",
				"pixelStride": 1,
				"method": "first-change"
			}
		}
	}`)))

	pc := GetProbeConfig()
	assert.Equal(t, 30.0, pc.Default)
	assert.Equal(t, 0.5, pc.SnapTolerance)
	assert.False(t, pc.OnLoad)
	assert.Equal(t, 200*time.Millisecond, pc.Window)
	assert.Equal(t, 6, pc.Samples)
	assert.Equal(t, 750*time.Millisecond, pc.SampleTimeout)
	assert.Equal(t, 1, pc.PixelStride)
	assert.Equal(t, "first-change", pc.Method)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": { "type": "sqlite", "sqlite": { "path": "/tmp/m.db" } }
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/m.db", sc.SQLite.Path)
}

func TestGetExportAndMediaConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"export": { "compress": true },
		"media": { "ffprobePath": "/opt/ffmpeg/bin/ffprobe" }
	}`)))

	assert.True(t, GetExportConfig().Compress)
	mc := GetMediaConfig()
	assert.Equal(t, "ffmpeg", mc.FFmpegPath)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", mc.FFprobePath)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "vidcoord", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetInfluxConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"influx": { "enabled": true, "host": "influx.local", "protocol": "https", "token": "t0k" }
	}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "https://influx.local:8086", ic.URL())
	assert.Equal(t, "t0k", ic.Token)
	assert.Equal(t, "measurements", ic.Bucket)
}

func TestGetMonitorConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))
	assert.Equal(t, MonitorConfig{Interval: 10 * time.Second}, GetMonitorConfig())

	require.NoError(t, Load(writeConfig(t, `{"monitor": {"interval": "1m", "statusFile": "status.json"}}`)))
	assert.Equal(t, MonitorConfig{Interval: time.Minute, StatusFile: "status.json"}, GetMonitorConfig())
}
