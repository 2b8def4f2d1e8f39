// Package config loads and validates the run configuration for the
// groundtruth label synthesis pipeline, following the JSON-load-then-
// Validate convention used throughout this codebase's tuning configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/simlabels/groundtruth/internal/car"
	"github.com/simlabels/groundtruth/internal/classes"
	"github.com/simlabels/groundtruth/internal/security"
	"github.com/simlabels/groundtruth/internal/track"
)

// outputKindNames are the recognised entries in a generate kind list.
var outputKindNames = map[string]bool{"visuals": true, "data": true, "overlays": true}

// generatorNames are the recognised keys of the generate map.
var generatorNames = map[string]bool{"segmentation": true, "normals": true, "depth": true}

// rawConfig mirrors the on-disk JSON schema from spec.md §6.
type rawConfig struct {
	TrackMeshPath      string              `json:"track_mesh_path"`
	RecordedDataPath   string              `json:"recorded_data_path"`
	OutputPath         string              `json:"output_path"`
	TrackName          string              `json:"track_name"`
	CarName            string              `json:"car_name"`
	ImageSize          [2]int              `json:"image_size"`
	VerticalFOV        float64             `json:"vertical_fov"`
	NRayCastingWorkers int                 `json:"n_ray_casting_workers"`
	NGenerationWorkers int                 `json:"n_generation_workers"`
	StartAtSample      int                 `json:"start_at_sample"`
	FinishAtSample     int                 `json:"finish_at_sample"`
	SampleEvery        int                 `json:"sample_every"`
	Generate           map[string][]string `json:"generate"`
}

// Config is the validated, typed run configuration.
type Config struct {
	TrackMeshPath    string
	RecordedDataPath string
	OutputPath       string

	TrackProfile *track.Profile
	CarProfile   *car.Profile

	Width, Height          int
	VerticalFOV            float64
	NRayCastingWorkers     int
	NGenerationWorkers     int
	StartAtSample          int
	FinishAtSample         int
	SampleEvery            int
	Generate               map[string]map[string]bool // generator name -> set of output kinds
}

// maxConfigFileSize bounds how large a config file we will read, mirroring
// the defensive size check in the teacher's config loader.
const maxConfigFileSize = 1 * 1024 * 1024

// Load reads, parses, and validates a configuration file. allowedDirs
// restricts where the file itself may live (path-traversal guard); pass
// the directories the CLI considers safe roots.
func Load(path string, allowedDirs []string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	if len(allowedDirs) > 0 {
		if err := security.ValidatePathWithinAllowedDirs(cleanPath, allowedDirs); err != nil {
			return nil, fmt.Errorf("config path rejected: %w", err)
		}
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return build(&raw)
}

func build(raw *rawConfig) (*Config, error) {
	if raw.TrackMeshPath == "" || raw.RecordedDataPath == "" || raw.OutputPath == "" {
		return nil, fmt.Errorf("track_mesh_path, recorded_data_path, and output_path are all required")
	}

	trackProfile, err := RegisteredTrack(raw.TrackName)
	if err != nil {
		return nil, err
	}
	carProfile, err := RegisteredCar(raw.CarName)
	if err != nil {
		return nil, err
	}

	if raw.ImageSize[0] <= 0 || raw.ImageSize[1] <= 0 {
		return nil, fmt.Errorf("image_size must be two positive integers, got %v", raw.ImageSize)
	}
	if raw.VerticalFOV <= 0 {
		return nil, fmt.Errorf("vertical_fov must be positive, got %f", raw.VerticalFOV)
	}
	if raw.NRayCastingWorkers <= 0 || raw.NGenerationWorkers <= 0 {
		return nil, fmt.Errorf("n_ray_casting_workers and n_generation_workers must be positive")
	}
	if raw.StartAtSample < 0 || raw.FinishAtSample < 0 || raw.SampleEvery < 0 {
		return nil, fmt.Errorf("start_at_sample, finish_at_sample, and sample_every must be non-negative")
	}
	if raw.FinishAtSample > 0 && raw.FinishAtSample < raw.StartAtSample {
		return nil, fmt.Errorf("finish_at_sample (%d) must not be before start_at_sample (%d)", raw.FinishAtSample, raw.StartAtSample)
	}
	sampleEvery := raw.SampleEvery
	if sampleEvery == 0 {
		sampleEvery = 1
	}

	generate := make(map[string]map[string]bool, len(raw.Generate))
	for name, kinds := range raw.Generate {
		if !generatorNames[name] {
			return nil, fmt.Errorf("generate: unknown generator %q", name)
		}
		kindSet := make(map[string]bool, len(kinds))
		for _, k := range kinds {
			if !outputKindNames[k] {
				return nil, fmt.Errorf("generate.%s: unknown output kind %q", name, k)
			}
			kindSet[k] = true
		}
		if (name == "depth" || name == "normals") && kindSet["data"] {
			return nil, fmt.Errorf("generate.%s: \"data\" output is reserved and unsupported", name)
		}
		generate[name] = kindSet
	}

	return &Config{
		TrackMeshPath:      raw.TrackMeshPath,
		RecordedDataPath:   raw.RecordedDataPath,
		OutputPath:         raw.OutputPath,
		TrackProfile:       trackProfile,
		CarProfile:         carProfile,
		Width:              raw.ImageSize[0],
		Height:             raw.ImageSize[1],
		VerticalFOV:        raw.VerticalFOV,
		NRayCastingWorkers: raw.NRayCastingWorkers,
		NGenerationWorkers: raw.NGenerationWorkers,
		StartAtSample:      raw.StartAtSample,
		FinishAtSample:     raw.FinishAtSample,
		SampleEvery:        sampleEvery,
		Generate:           generate,
	}, nil
}

// registeredTracks and registeredCars implement the "enum of registered
// tracks/cars" surface from spec.md §6. Other code may extend these via
// RegisterTrack/RegisterCar at program startup; cmd/groundtruth registers
// nothing and relies on the built-in "default" pair below, so the
// pipeline is runnable out of the box.
var (
	registeredTracks = map[string]*track.Profile{}
	registeredCars   = map[string]*car.Profile{}
)

func init() {
	tbl := classes.Default()
	defaultTrack, err := track.New(
		"default",
		nil,
		[]string{"AC_PIT"},
		map[string]string{
			"asphalt":  "road",
			"kerb":     "curb",
			"grass":    "grass",
			"sand":     "sidewalk",
			"concrete": "barrier",
		},
		tbl,
	)
	if err != nil {
		panic(fmt.Sprintf("config: invalid built-in default track: %v", err))
	}
	registeredTracks["default"] = defaultTrack

	registeredCars["default"] = &car.Profile{
		Name:     "default",
		OffsetX:  0,
		OffsetY:  1.1,
		OffsetZ:  -0.3,
		PitchDeg: 0,
	}
}

// RegisterTrack installs a track.Profile under a name so config files
// may select it via track_name.
func RegisterTrack(name string, p *track.Profile) { registeredTracks[name] = p }

// RegisterCar installs a car.Profile under a name so config files may
// select it via car_name.
func RegisterCar(name string, p *car.Profile) { registeredCars[name] = p }

// RegisteredTrack resolves track_name, per spec.md §6.
func RegisteredTrack(name string) (*track.Profile, error) {
	p, ok := registeredTracks[name]
	if !ok {
		return nil, fmt.Errorf("track_name: unknown track %q", name)
	}
	return p, nil
}

// RegisteredCar resolves car_name, per spec.md §6.
func RegisteredCar(name string) (*car.Profile, error) {
	p, ok := registeredCars[name]
	if !ok {
		return nil, fmt.Errorf("car_name: unknown car %q", name)
	}
	return p, nil
}
