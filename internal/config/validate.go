package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDICOM(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ImagesDir == "" {
		return errors.New("paths.images_dir must be set")
	}
	if c.Paths.IncomingDir == "" {
		return errors.New("paths.incoming_dir must be set")
	}
	if c.Paths.ImagesDir == c.Paths.IncomingDir {
		return errors.New("paths.images_dir and paths.incoming_dir must differ")
	}
	return nil
}

func (c *Config) validateDICOM() error {
	if c.DICOM.AETitle == "" {
		return errors.New("dicom.ae_title must be set")
	}
	if len(c.DICOM.AETitle) > 16 {
		return fmt.Errorf("dicom.ae_title %q exceeds the 16 character AE title limit", c.DICOM.AETitle)
	}
	if c.DICOM.Port <= 0 || c.DICOM.Port > 65535 {
		return fmt.Errorf("dicom.port %d is out of range", c.DICOM.Port)
	}
	if c.DICOM.PeerPort <= 0 || c.DICOM.PeerPort > 65535 {
		return fmt.Errorf("dicom.peer_port %d is out of range", c.DICOM.PeerPort)
	}
	if len(c.DICOM.PeerAETitle) > 16 {
		return fmt.Errorf("dicom.peer_ae_title %q exceeds the 16 character AE title limit", c.DICOM.PeerAETitle)
	}
	return nil
}

func (c *Config) validateAI() error {
	if c.AI.BaseURL == "" {
		return errors.New("ai.base_url must be set")
	}
	if c.AI.MaxAttempts < 1 {
		return errors.New("ai.max_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
