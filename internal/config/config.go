package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CameraFollow   = "follow"
	CameraAttached = "attached"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	LevelFile string          `yaml:"level_file"`
	Frame     FrameConfig     `yaml:"frame"`
	Character CharacterConfig `yaml:"character"`
	Camera    CameraConfig    `yaml:"camera"`
	Console   ConsoleConfig   `yaml:"console"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type FrameConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	MaxDT        float64       `yaml:"max_dt"`
}

type CharacterConfig struct {
	MoveSpeed float64 `yaml:"move_speed"`
	TurnSpeed float64 `yaml:"turn_speed"`
	GroundTag string  `yaml:"ground_tag"`
	IdleClip  string  `yaml:"idle_clip"`
	RunClip   string  `yaml:"run_clip"`
}

type CameraConfig struct {
	Mode     string               `yaml:"mode"`
	Follow   FollowCameraConfig   `yaml:"follow"`
	Attached AttachedCameraConfig `yaml:"attached"`
}

type FollowCameraConfig struct {
	MinRadius     float64 `yaml:"min_radius"`
	MaxRadius     float64 `yaml:"max_radius"`
	TurnSpeed     float64 `yaml:"turn_speed"`
	TerrainOffset float64 `yaml:"terrain_offset"`
	TargetMargin  float64 `yaml:"target_margin"`
	LookHeight    float64 `yaml:"look_height"`
}

type AttachedCameraConfig struct {
	Height        float64  `yaml:"height"`
	MinDistance   float64  `yaml:"min_distance"`
	MaxDistance   float64  `yaml:"max_distance"`
	SmoothingGain float64  `yaml:"smoothing_gain"`
	SmoothingCap  float64  `yaml:"smoothing_cap"`
	IgnoreTags    []string `yaml:"ignore_tags"`
}

type ConsoleConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MovePulse time.Duration `yaml:"move_pulse"`
}

func Default() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		LevelFile: "configs/level.yaml",
		Frame:     FrameConfig{TickInterval: 16 * time.Millisecond, MaxDT: 0.1},
		Character: CharacterConfig{
			MoveSpeed: 20,
			TurnSpeed: 300,
			GroundTag: "terrain",
			IdleClip:  "idle",
			RunClip:   "run",
		},
		Camera: CameraConfig{
			Mode: CameraFollow,
			Follow: FollowCameraConfig{
				MinRadius:     5,
				MaxRadius:     10,
				TurnSpeed:     90,
				TerrainOffset: 1.5,
				TargetMargin:  2,
				LookHeight:    2,
			},
			Attached: AttachedCameraConfig{
				Height:        2,
				MinDistance:   1,
				MaxDistance:   8,
				SmoothingGain: 5,
				SmoothingCap:  0.5,
			},
		},
		Console: ConsoleConfig{Enabled: true, MovePulse: 180 * time.Millisecond},
	}
}

// Load reads path over the defaults, so keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Camera.Mode != CameraFollow && c.Camera.Mode != CameraAttached:
		return fmt.Errorf("%w: camera.mode %q, want %q or %q", ErrInvalid, c.Camera.Mode, CameraFollow, CameraAttached)
	case c.Character.MoveSpeed <= 0 || c.Character.TurnSpeed <= 0:
		return fmt.Errorf("%w: character speeds must be positive", ErrInvalid)
	case c.Camera.Follow.MinRadius < 0 || c.Camera.Follow.MinRadius > c.Camera.Follow.MaxRadius:
		return fmt.Errorf("%w: camera.follow min_radius %v must be within [0, max_radius %v]", ErrInvalid, c.Camera.Follow.MinRadius, c.Camera.Follow.MaxRadius)
	case c.Camera.Attached.MinDistance < 0 || c.Camera.Attached.MinDistance > c.Camera.Attached.MaxDistance:
		return fmt.Errorf("%w: camera.attached min_distance %v must be within [0, max_distance %v]", ErrInvalid, c.Camera.Attached.MinDistance, c.Camera.Attached.MaxDistance)
	case c.Camera.Attached.SmoothingCap < 0 || c.Camera.Attached.SmoothingCap > 1:
		return fmt.Errorf("%w: camera.attached smoothing_cap %v must be within [0, 1]", ErrInvalid, c.Camera.Attached.SmoothingCap)
	case c.Frame.TickInterval <= 0 || c.Frame.MaxDT <= 0:
		return fmt.Errorf("%w: frame tick_interval and max_dt must be positive", ErrInvalid)
	case c.LevelFile == "":
		return fmt.Errorf("%w: level_file is empty", ErrInvalid)
	}
	return nil
}
