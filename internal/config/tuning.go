package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/stormtrack/internal/geo"
	"github.com/banshee-data/stormtrack/internal/storm"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tracking
// parameters. All fields are pointers so a partial JSON file can
// override only the values it names; the Get* methods supply defaults
// for everything else.
type TuningConfig struct {
	// Detection params
	MinEchoTopKm        *float64 `json:"min_echo_top_km,omitempty"`
	EFoldingRadiusCells *float64 `json:"e_folding_radius_cells,omitempty"`
	CutoffRadiusCells   *float64 `json:"cutoff_radius_cells,omitempty"`
	NeighHalfWidthCells *int     `json:"neigh_half_width_cells,omitempty"`
	MinSeparationMetres *float64 `json:"min_separation_metres,omitempty"`

	// Linking params
	MaxLinkTimeSeconds *int64   `json:"max_link_time_seconds,omitempty"`
	MaxLinkSpeedMS     *float64 `json:"max_link_speed_m_s,omitempty"`

	// Pruning params
	MinDurationSeconds *int64 `json:"min_duration_seconds,omitempty"`

	// Reanalysis params (optional)
	MaxJoinTimeSeconds   *int64   `json:"max_join_time_seconds,omitempty"`
	MaxJoinErrorSpeedMS  *float64 `json:"max_join_error_m_s,omitempty"`
	VelocityLookbackObjs *int     `json:"velocity_lookback_objects,omitempty"`

	// Projection origin
	CentralLatDeg *float64 `json:"central_lat_deg,omitempty"`
	CentralLngDeg *float64 `json:"central_lng_deg,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storm/storage/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MinEchoTopKm != nil && *c.MinEchoTopKm <= 0 {
		return fmt.Errorf("min_echo_top_km must be positive, got %f", *c.MinEchoTopKm)
	}
	if c.EFoldingRadiusCells != nil && *c.EFoldingRadiusCells <= 0 {
		return fmt.Errorf("e_folding_radius_cells must be positive, got %f", *c.EFoldingRadiusCells)
	}
	if c.NeighHalfWidthCells != nil && *c.NeighHalfWidthCells < 1 {
		return fmt.Errorf("neigh_half_width_cells must be at least 1, got %d", *c.NeighHalfWidthCells)
	}
	if c.MinSeparationMetres != nil && *c.MinSeparationMetres <= 0 {
		return fmt.Errorf("min_separation_metres must be positive, got %f", *c.MinSeparationMetres)
	}
	if c.MaxLinkTimeSeconds != nil && *c.MaxLinkTimeSeconds <= 0 {
		return fmt.Errorf("max_link_time_seconds must be positive, got %d", *c.MaxLinkTimeSeconds)
	}
	if c.MaxLinkSpeedMS != nil && *c.MaxLinkSpeedMS <= 0 {
		return fmt.Errorf("max_link_speed_m_s must be positive, got %f", *c.MaxLinkSpeedMS)
	}
	if c.MinDurationSeconds != nil && *c.MinDurationSeconds < 0 {
		return fmt.Errorf("min_duration_seconds must be non-negative, got %d", *c.MinDurationSeconds)
	}
	if c.CentralLatDeg != nil && (*c.CentralLatDeg < -90 || *c.CentralLatDeg > 90) {
		return fmt.Errorf("central_lat_deg must be between -90 and 90, got %f", *c.CentralLatDeg)
	}
	return nil
}

// GetMinEchoTopKm returns the min_echo_top_km value or the default.
func (c *TuningConfig) GetMinEchoTopKm() float64 {
	if c.MinEchoTopKm == nil {
		return 4.0
	}
	return *c.MinEchoTopKm
}

// GetEFoldingRadiusCells returns the e_folding_radius_cells value or the default.
func (c *TuningConfig) GetEFoldingRadiusCells() float64 {
	if c.EFoldingRadiusCells == nil {
		return 1.2
	}
	return *c.EFoldingRadiusCells
}

// GetCutoffRadiusCells returns the cutoff_radius_cells value or the
// default of zero, which lets the smoother pick 3 e-folding radii.
func (c *TuningConfig) GetCutoffRadiusCells() float64 {
	if c.CutoffRadiusCells == nil {
		return 0
	}
	return *c.CutoffRadiusCells
}

// GetNeighHalfWidthCells returns the neigh_half_width_cells value or the default.
func (c *TuningConfig) GetNeighHalfWidthCells() int {
	if c.NeighHalfWidthCells == nil {
		return 3
	}
	return *c.NeighHalfWidthCells
}

// GetMinSeparationMetres returns the min_separation_metres value or the
// default of 0.1 degrees of latitude.
func (c *TuningConfig) GetMinSeparationMetres() float64 {
	if c.MinSeparationMetres == nil {
		return 0.1 * geo.DegreesLatToMetres
	}
	return *c.MinSeparationMetres
}

// GetMaxLinkTimeSeconds returns the max_link_time_seconds value or the default.
func (c *TuningConfig) GetMaxLinkTimeSeconds() int64 {
	if c.MaxLinkTimeSeconds == nil {
		return 300
	}
	return *c.MaxLinkTimeSeconds
}

// GetMaxLinkSpeedMS returns the max_link_speed_m_s value or the default.
func (c *TuningConfig) GetMaxLinkSpeedMS() float64 {
	if c.MaxLinkSpeedMS == nil {
		return 50.0
	}
	return *c.MaxLinkSpeedMS
}

// GetMinDurationSeconds returns the min_duration_seconds value or the default.
func (c *TuningConfig) GetMinDurationSeconds() int64 {
	if c.MinDurationSeconds == nil {
		return 900
	}
	return *c.MinDurationSeconds
}

// GetMaxJoinTimeSeconds returns the max_join_time_seconds value or the default.
func (c *TuningConfig) GetMaxJoinTimeSeconds() int64 {
	if c.MaxJoinTimeSeconds == nil {
		return 600
	}
	return *c.MaxJoinTimeSeconds
}

// GetMaxJoinErrorSpeedMS returns the max_join_error_m_s value or the default.
func (c *TuningConfig) GetMaxJoinErrorSpeedMS() float64 {
	if c.MaxJoinErrorSpeedMS == nil {
		return 50.0
	}
	return *c.MaxJoinErrorSpeedMS
}

// GetVelocityLookbackObjs returns the velocity_lookback_objects value or the default.
func (c *TuningConfig) GetVelocityLookbackObjs() int {
	if c.VelocityLookbackObjs == nil {
		return 3
	}
	return *c.VelocityLookbackObjs
}

// GetCentralLatDeg returns the central_lat_deg value or the default.
func (c *TuningConfig) GetCentralLatDeg() float64 {
	if c.CentralLatDeg == nil {
		return 35.0
	}
	return *c.CentralLatDeg
}

// GetCentralLngDeg returns the central_lng_deg value or the default.
func (c *TuningConfig) GetCentralLngDeg() float64 {
	if c.CentralLngDeg == nil {
		return 265.0
	}
	return *c.CentralLngDeg
}

// Params converts the tuning config into pipeline parameters.
func (c *TuningConfig) Params() storm.Params {
	return storm.Params{
		MinValue:            c.GetMinEchoTopKm(),
		EFoldingRadiusCells: c.GetEFoldingRadiusCells(),
		CutoffRadiusCells:   c.GetCutoffRadiusCells(),
		HalfWidthCells:      c.GetNeighHalfWidthCells(),
		MinSeparationMetres: c.GetMinSeparationMetres(),
		MaxLinkTimeSeconds:  c.GetMaxLinkTimeSeconds(),
		MaxLinkSpeedMS:      c.GetMaxLinkSpeedMS(),
		MinDurationSeconds:  c.GetMinDurationSeconds(),
		CentralLatDeg:       c.GetCentralLatDeg(),
		CentralLngDeg:       c.GetCentralLngDeg(),
	}
}
