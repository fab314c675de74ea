// Package config loads syncfinder.Params overlays from JSON or YAML files:
// a pointer-typed optional overlay struct applied on top of
// NewDefaultParams(), plus a schema_version gate so an operator's config
// directory never gets silently misread by a binary built against a newer
// schema.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/syncfinder/syncfinder"
)

// SchemaVersion is the config schema this binary understands. File.
// SchemaVersion must be compatible with it (same major, and not newer than
// ours) or LoadJSON/LoadYAML reject the file.
const SchemaVersion = "1.0.0"

// File is the on-disk schema for a Params overlay. Every field is a
// pointer/zero-value-means-unset so only fields actually present in the
// file override NewDefaultParams().
type File struct {
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`

	FrameSize *int `json:"frame_size,omitempty" yaml:"frame_size,omitempty"`
	MinBand   *int `json:"min_band,omitempty" yaml:"min_band,omitempty"`
	MaxBand   *int `json:"max_band,omitempty" yaml:"max_band,omitempty"`

	SyncBits           *int `json:"sync_bits,omitempty" yaml:"sync_bits,omitempty"`
	SyncFramesPerBit   *int `json:"sync_frames_per_bit,omitempty" yaml:"sync_frames_per_bit,omitempty"`
	MarkDataFrameCount *int `json:"mark_data_frame_count,omitempty" yaml:"mark_data_frame_count,omitempty"`
	FramesPadStart     *int `json:"frames_pad_start,omitempty" yaml:"frames_pad_start,omitempty"`

	SyncSearchStep *int `json:"sync_search_step,omitempty" yaml:"sync_search_step,omitempty"`
	SyncSearchFine *int `json:"sync_search_fine,omitempty" yaml:"sync_search_fine,omitempty"`

	SyncThreshold2 *float64 `json:"sync_threshold2,omitempty" yaml:"sync_threshold2,omitempty"`
	GetNBest       *int     `json:"get_n_best,omitempty" yaml:"get_n_best,omitempty"`
	WaterDelta     *float64 `json:"water_delta,omitempty" yaml:"water_delta,omitempty"`

	TestNoSync *bool `json:"test_no_sync,omitempty" yaml:"test_no_sync,omitempty"`

	LocalMeanDistance *int `json:"local_mean_distance,omitempty" yaml:"local_mean_distance,omitempty"`
}

// LoadJSON reads a JSON File from path and applies it on top of
// syncfinder.NewDefaultParams().
func LoadJSON(path string) (*syncfinder.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return apply(&f)
}

// LoadYAML reads a YAML File from path and applies it on top of
// syncfinder.NewDefaultParams().
func LoadYAML(path string) (*syncfinder.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return apply(&f)
}

func apply(f *File) (*syncfinder.Params, error) {
	if err := checkSchemaVersion(f.SchemaVersion); err != nil {
		return nil, err
	}

	p := syncfinder.NewDefaultParams()
	if err := ApplyFile(p, f); err != nil {
		return nil, err
	}
	return p, nil
}

// checkSchemaVersion rejects configs from an incompatible schema. An empty
// fileVersion is treated as SchemaVersion (the schema predates versioning).
func checkSchemaVersion(fileVersion string) error {
	if fileVersion == "" {
		return nil
	}

	ours, err := version.NewVersion(SchemaVersion)
	if err != nil {
		return fmt.Errorf("config: invalid built-in schema version %q: %w", SchemaVersion, err)
	}
	theirs, err := version.NewVersion(fileVersion)
	if err != nil {
		return fmt.Errorf("config: invalid schema_version %q: %w", fileVersion, err)
	}

	if theirs.Segments()[0] != ours.Segments()[0] {
		return fmt.Errorf("config: schema_version %s is incompatible with supported major version %s", fileVersion, SchemaVersion)
	}
	if theirs.GreaterThan(ours) {
		return fmt.Errorf("config: schema_version %s is newer than the %s this binary understands", fileVersion, SchemaVersion)
	}
	return nil
}

// ApplyFile applies a parsed overlay file onto an existing Params,
// validating each field as it is applied.
func ApplyFile(dst *syncfinder.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("config: nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.FrameSize != nil {
		if *f.FrameSize <= 0 {
			return fmt.Errorf("config: frame_size must be > 0")
		}
		dst.FrameSize = *f.FrameSize
	}
	if f.MinBand != nil {
		dst.MinBand = *f.MinBand
	}
	if f.MaxBand != nil {
		dst.MaxBand = *f.MaxBand
	}
	if dst.MaxBand < dst.MinBand {
		return fmt.Errorf("config: max_band must be >= min_band")
	}

	if f.SyncBits != nil {
		if *f.SyncBits <= 0 {
			return fmt.Errorf("config: sync_bits must be > 0")
		}
		dst.SyncBits = *f.SyncBits
	}
	if f.SyncFramesPerBit != nil {
		if *f.SyncFramesPerBit <= 0 {
			return fmt.Errorf("config: sync_frames_per_bit must be > 0")
		}
		dst.SyncFramesPerBit = *f.SyncFramesPerBit
	}
	if f.MarkDataFrameCount != nil {
		if *f.MarkDataFrameCount < 0 {
			return fmt.Errorf("config: mark_data_frame_count must be >= 0")
		}
		dst.MarkDataFrameCount = *f.MarkDataFrameCount
	}
	if f.FramesPadStart != nil {
		if *f.FramesPadStart < 0 {
			return fmt.Errorf("config: frames_pad_start must be >= 0")
		}
		dst.FramesPadStart = *f.FramesPadStart
	}

	if f.SyncSearchStep != nil {
		if *f.SyncSearchStep <= 0 {
			return fmt.Errorf("config: sync_search_step must be > 0")
		}
		dst.SyncSearchStep = *f.SyncSearchStep
	}
	if f.SyncSearchFine != nil {
		if *f.SyncSearchFine <= 0 {
			return fmt.Errorf("config: sync_search_fine must be > 0")
		}
		dst.SyncSearchFine = *f.SyncSearchFine
	}

	if f.SyncThreshold2 != nil {
		dst.SyncThreshold2 = *f.SyncThreshold2
	}
	if f.GetNBest != nil {
		if *f.GetNBest < 0 {
			return fmt.Errorf("config: get_n_best must be >= 0")
		}
		dst.GetNBest = *f.GetNBest
	}
	if f.WaterDelta != nil {
		if *f.WaterDelta <= 0 {
			return fmt.Errorf("config: water_delta must be > 0")
		}
		dst.WaterDelta = *f.WaterDelta
	}

	if f.TestNoSync != nil {
		dst.TestNoSync = *f.TestNoSync
	}

	if f.LocalMeanDistance != nil {
		if *f.LocalMeanDistance <= 0 {
			return fmt.Errorf("config: local_mean_distance must be > 0")
		}
		dst.LocalMeanDistance = *f.LocalMeanDistance
	}

	return nil
}
