package configs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var globalConfigs *Configs

type Configs struct {
	Logger LoggerConfigs `json:"logger,omitempty" yaml:"logger,omitempty"`
	Ipc    IpcConfigs    `json:"ipc,omitempty" yaml:"ipc,omitempty"`
	Obs    ObsConfigs    `json:"obs,omitempty" yaml:"obs,omitempty"`
	Layout LayoutConfigs `json:"layout,omitempty" yaml:"layout,omitempty"`
	Mqtt   MqttConfigs   `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
	Http   HttpConfigs   `json:"http,omitempty" yaml:"http,omitempty"`
}

func (c Configs) String() string {
	redacted := c
	if len(redacted.Obs.Password) > 0 {
		redacted.Obs.Password = "***"
	}
	if len(redacted.Mqtt.Password) > 0 {
		redacted.Mqtt.Password = "***"
	}
	configBytes, _ := json.Marshal(redacted)
	return string(configBytes)
}

func Init(ctx context.Context) {
	configs, err := readConfig()
	if err != nil {
		log.Fatal(err)
		return
	}
	globalConfigs = configs
}

func Get() *Configs {
	return globalConfigs
}

type LoggerConfigs struct {
	Level    string `json:"level,omitempty" yaml:"level,omitempty"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

type IpcConfigs struct {
	SocketPath string `json:"socketPath,omitempty" yaml:"socketPath,omitempty"`
}

type ObsConfigs struct {
	Url             string        `json:"url,omitempty" yaml:"url,omitempty"`
	Password        string        `json:"password,omitempty" yaml:"password,omitempty"`
	RequestTimeout  time.Duration `json:"requestTimeout,omitempty" yaml:"requestTimeout,omitempty"`
	ConnectTimeout  time.Duration `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
	ConnectAttempts uint          `json:"connectAttempts,omitempty" yaml:"connectAttempts,omitempty"`
	CacheTtl        time.Duration `json:"cacheTtl,omitempty" yaml:"cacheTtl,omitempty"`
}

func (c *ObsConfigs) HasAuth() bool {
	return len(c.Password) > 0
}

// LayoutConfigs names the OBS objects the layout filters live on.
type LayoutConfigs struct {
	FilterSource string `json:"filterSource,omitempty" yaml:"filterSource,omitempty"`
	SceneName    string `json:"sceneName,omitempty" yaml:"sceneName,omitempty"`
	CameraSource string `json:"cameraSource,omitempty" yaml:"cameraSource,omitempty"`
}

type TlsConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

type MqttConfigs struct {
	Enabled     bool      `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Tls         TlsConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
	Host        string    `json:"host,omitempty" yaml:"host,omitempty"`
	Port        int       `json:"port,omitempty" yaml:"port,omitempty"`
	ClientId    string    `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	Username    string    `json:"username,omitempty" yaml:"username,omitempty"`
	Password    string    `json:"password,omitempty" yaml:"password,omitempty"`
	TopicPrefix string    `json:"topicPrefix,omitempty" yaml:"topicPrefix,omitempty"`
}

func (c *MqttConfigs) HasAuth() bool {
	return len(c.Username) > 0 && len(c.Password) > 0
}

func (c *MqttConfigs) CommandTopic() string {
	return fmt.Sprintf("%s/command", c.TopicPrefix)
}

func (c *MqttConfigs) ResultTopic() string {
	return fmt.Sprintf("%s/result", c.TopicPrefix)
}

type HttpConfigs struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
}

func (c *HttpConfigs) Enabled() bool {
	return c.Port > 0
}

func (c *HttpConfigs) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func readConfig() (*Configs, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, custerror.FormatInvalidArgument("readConfig: .env err = %s", err)
	}

	configs := &Configs{}
	path := os.Getenv(ENV_CONFIG_FILE_PATH)
	if len(path) > 0 {
		configFile, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		parsed, err := parseConfig(configFile)
		if err != nil {
			return nil, err
		}
		configs = parsed
	}

	if err := applyEnvironment(configs, environ()); err != nil {
		return nil, err
	}
	applyDefaults(configs)
	return configs, nil
}

func readConfigFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, custerror.FormatNotFound("readConfigFile: file not found")
		}
		return nil, custerror.FormatInternalError("readConfigFile: err = %s", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, custerror.FormatInternalError("readConfigFile: err = %s", err)
	}

	return contents, nil
}

func parseConfig(contents []byte) (*Configs, error) {
	configs := &Configs{}
	if jsonErr := json.Unmarshal(contents, configs); jsonErr != nil {
		configs = &Configs{}
		if yamlErr := yaml.Unmarshal(contents, configs); yamlErr != nil {
			return nil, custerror.FormatInvalidArgument("parseConfig: config parse JSON err = %s YAML err = %s", jsonErr, yamlErr)
		}
	}
	return configs, nil
}

func applyDefaults(c *Configs) {
	if len(c.Ipc.SocketPath) == 0 {
		c.Ipc.SocketPath = filepath.Join(os.TempDir(), DefaultSocketName)
	}
	if len(c.Obs.Url) == 0 {
		c.Obs.Url = DefaultObsUrl
	}
	if c.Obs.RequestTimeout <= 0 {
		c.Obs.RequestTimeout = DefaultRequestTimeout
	}
	if c.Obs.ConnectTimeout <= 0 {
		c.Obs.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Obs.ConnectAttempts == 0 {
		c.Obs.ConnectAttempts = 1
	}
	if c.Obs.CacheTtl <= 0 {
		c.Obs.CacheTtl = DefaultCacheTtl
	}
	if len(c.Layout.FilterSource) == 0 {
		c.Layout.FilterSource = DefaultFilterSource
	}
	if len(c.Layout.SceneName) == 0 {
		c.Layout.SceneName = DefaultSceneName
	}
	if len(c.Layout.CameraSource) == 0 {
		c.Layout.CameraSource = DefaultCameraSource
	}
	if len(c.Mqtt.TopicPrefix) == 0 {
		c.Mqtt.TopicPrefix = DefaultTopicPrefix
	}
	if len(c.Mqtt.ClientId) == 0 {
		c.Mqtt.ClientId = DefaultMqttClientId
	}
	if len(c.Http.Name) == 0 {
		c.Http.Name = DefaultHttpName
	}
}
