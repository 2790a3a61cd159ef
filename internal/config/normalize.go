package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDICOM()
	c.normalizeAI()
	c.normalizeDashboard()
	c.normalizeConvert()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ImagesDir, err = expandPath(c.Paths.ImagesDir); err != nil {
		return fmt.Errorf("paths.images_dir: %w", err)
	}
	if c.Paths.IncomingDir, err = expandPath(c.Paths.IncomingDir); err != nil {
		return fmt.Errorf("paths.incoming_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDICOM() {
	c.DICOM.AETitle = strings.TrimSpace(c.DICOM.AETitle)
	c.DICOM.PeerAETitle = strings.TrimSpace(c.DICOM.PeerAETitle)
	c.DICOM.PeerHost = strings.TrimSpace(c.DICOM.PeerHost)
	c.DICOM.Modality = strings.ToUpper(strings.TrimSpace(c.DICOM.Modality))
	if c.DICOM.Modality == "" {
		c.DICOM.Modality = defaultModality
	}
	if c.DICOM.MoveDelay <= 0 {
		c.DICOM.MoveDelay = defaultMoveDelay
	}
	if c.DICOM.ReleaseDelay <= 0 {
		c.DICOM.ReleaseDelay = defaultReleaseDelay
	}
}

func (c *Config) normalizeAI() {
	if key, ok := os.LookupEnv("XRAYVISION_API_KEY"); ok && strings.TrimSpace(c.AI.APIKey) == "" {
		c.AI.APIKey = key
	}
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	c.AI.BaseURL = strings.TrimSpace(c.AI.BaseURL)
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = defaultAIBaseURL
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultAIModel
	}
	if c.AI.MaxAttempts <= 0 {
		c.AI.MaxAttempts = defaultAIMaxAttempts
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeout
	}
}

func (c *Config) normalizeDashboard() {
	c.Dashboard.Bind = strings.TrimSpace(c.Dashboard.Bind)
	if c.Dashboard.Bind == "" {
		c.Dashboard.Bind = defaultDashboardBind
	}
	if c.Dashboard.HistorySize <= 0 {
		c.Dashboard.HistorySize = defaultHistorySize
	}
	if c.Dashboard.RefreshSeconds <= 0 {
		c.Dashboard.RefreshSeconds = defaultRefreshSeconds
	}
}

func (c *Config) normalizeConvert() {
	if c.Convert.MaxSize <= 0 {
		c.Convert.MaxSize = defaultConvertMaxSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
