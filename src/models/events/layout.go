package events

type Spacing struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

type Crop struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

type CameraCrop struct {
	Crop
	SourceWidth  int `json:"sourceWidth"`
	SourceHeight int `json:"sourceHeight"`
}

type LayoutStatus struct {
	Layout            string `json:"layout"`
	Fingerprint       string `json:"fingerprint"`
	Transitioning     bool   `json:"transitioning"`
	LastNonFullscreen string `json:"lastNonFullscreen"`
}
