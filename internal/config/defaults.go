package config

const (
	defaultImagesDir      = "~/.local/share/xrayvision/images"
	defaultIncomingDir    = "~/.local/share/xrayvision/incoming"
	defaultLogDir         = "~/.local/share/xrayvision/logs"
	defaultAETitle        = "XRAYVISION"
	defaultDICOMPort      = 4010
	defaultPeerAETitle    = "DICOM_SERVER"
	defaultPeerHost       = "192.168.1.1"
	defaultPeerPort       = 104
	defaultModality       = "CR"
	defaultMoveDelay      = 1
	defaultReleaseDelay   = 10
	defaultAIBaseURL      = "http://127.0.0.1:8080/v1/chat/completions"
	defaultAIModel        = "medgemma-4b-it"
	defaultAIMaxAttempts  = 3
	defaultAITimeout      = 120
	defaultDashboardBind  = "0.0.0.0:8000"
	defaultHistorySize    = 20
	defaultRefreshSeconds = 5
	defaultConvertMaxSize = 500
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ImagesDir:   defaultImagesDir,
			IncomingDir: defaultIncomingDir,
			LogDir:      defaultLogDir,
		},
		DICOM: DICOM{
			AETitle:      defaultAETitle,
			Port:         defaultDICOMPort,
			PeerAETitle:  defaultPeerAETitle,
			PeerHost:     defaultPeerHost,
			PeerPort:     defaultPeerPort,
			Modality:     defaultModality,
			MoveDelay:    defaultMoveDelay,
			ReleaseDelay: defaultReleaseDelay,
		},
		AI: AI{
			BaseURL:        defaultAIBaseURL,
			Model:          defaultAIModel,
			MaxAttempts:    defaultAIMaxAttempts,
			TimeoutSeconds: defaultAITimeout,
		},
		Dashboard: Dashboard{
			Bind:           defaultDashboardBind,
			HistorySize:    defaultHistorySize,
			RefreshSeconds: defaultRefreshSeconds,
		},
		Convert: Convert{
			MaxSize: defaultConvertMaxSize,
			Gamma:   true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
