package configs

import "time"

const (
	ENV_CONFIG_FILE_PATH = "ENV_CONFIG_FILE_PATH"
)

const (
	DefaultSocketName     = "obs-control.sock"
	DefaultObsUrl         = "ws://127.0.0.1:4455"
	DefaultRequestTimeout = 5 * time.Second
	DefaultConnectTimeout = 3 * time.Second
	DefaultCacheTtl       = 30 * time.Second
	DefaultFilterSource   = "Camera"
	DefaultSceneName      = "Camera"
	DefaultCameraSource   = "Camera Source"
	DefaultTopicPrefix    = "obs-control"
	DefaultMqttClientId   = "obs-control"
	DefaultHttpName       = "layout-sidecar"
)
