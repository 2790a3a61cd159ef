// Package config loads, normalizes, and validates XRayVision configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// XRAYVISION_API_KEY. The Config type centralizes every knob the daemon and
// CLI need: storage directories, the local DICOM application entity, the
// query/retrieve peer, and the inference endpoint.
package config
