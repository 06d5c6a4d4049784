package configs

import (
	"os"
	"path/filepath"
	"strings"

	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/mitchellh/mapstructure"
)

// environmentOverrides are the variables the daemon has always honoured,
// usually provided through a .env file next to the binary.
type environmentOverrides struct {
	Url             string `mapstructure:"URL"`
	Password        string `mapstructure:"PASSWORD"`
	RuntimeDir      string `mapstructure:"XDG_RUNTIME_DIR"`
	SocketPath      string `mapstructure:"OBS_CONTROL_SOCKET"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	MqttTopicPrefix string `mapstructure:"MQTT_TOPIC_PREFIX"`
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		env[key] = value
	}
	return env
}

func applyEnvironment(c *Configs, env map[string]string) error {
	var overrides environmentOverrides
	if err := mapstructure.Decode(env, &overrides); err != nil {
		return custerror.FormatInvalidArgument("applyEnvironment: err = %s", err)
	}

	if len(overrides.Url) > 0 {
		c.Obs.Url = overrides.Url
	}
	if len(overrides.Password) > 0 {
		c.Obs.Password = overrides.Password
	}
	if len(overrides.LogLevel) > 0 {
		c.Logger.Level = overrides.LogLevel
	}
	if len(overrides.MqttTopicPrefix) > 0 {
		c.Mqtt.TopicPrefix = overrides.MqttTopicPrefix
	}
	switch {
	case len(overrides.SocketPath) > 0:
		c.Ipc.SocketPath = overrides.SocketPath
	case len(c.Ipc.SocketPath) == 0 && len(overrides.RuntimeDir) > 0:
		c.Ipc.SocketPath = filepath.Join(overrides.RuntimeDir, DefaultSocketName)
	}
	return nil
}
