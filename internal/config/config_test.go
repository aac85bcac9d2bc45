package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoad 使用表驱动测试覆盖配置加载的核心场景
func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		createFile bool
		content    string
		wantErr    bool
		validate   func(t *testing.T, cfg *Config, err error)
	}{
		{
			name:       "正常加载有效YAML",
			createFile: true,
			content: `logging:
  level: "debug"
  format: "text"
  file: "roam.log"
level_file: "levels/meadow.yaml"
frame:
  tick_interval: 20ms
  max_dt: 0.05
character:
  move_speed: 12
  turn_speed: 180
camera:
  mode: "attached"
  attached:
    height: 3
    max_distance: 12
    ignore_tags: ["foliage"]
console:
  enabled: false
  move_pulse: 250ms
`,
			wantErr: false,
			validate: func(t *testing.T, cfg *Config, err error) {
				if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" || cfg.Logging.File != "roam.log" {
					t.Errorf("Logging = %+v", cfg.Logging)
				}
				if cfg.LevelFile != "levels/meadow.yaml" {
					t.Errorf("LevelFile = %q, 期望 %q", cfg.LevelFile, "levels/meadow.yaml")
				}
				if cfg.Frame.TickInterval != 20*time.Millisecond || cfg.Frame.MaxDT != 0.05 {
					t.Errorf("Frame = %+v", cfg.Frame)
				}
				if cfg.Character.MoveSpeed != 12 || cfg.Character.TurnSpeed != 180 {
					t.Errorf("Character = %+v", cfg.Character)
				}
				if cfg.Character.IdleClip != "idle" || cfg.Character.RunClip != "run" {
					t.Errorf("未设置的 clip 应保留默认值, 实际 %+v", cfg.Character)
				}
				if cfg.Camera.Mode != CameraAttached {
					t.Errorf("Camera.Mode = %q, 期望 %q", cfg.Camera.Mode, CameraAttached)
				}
				a := cfg.Camera.Attached
				if a.Height != 3 || a.MaxDistance != 12 || a.MinDistance != 1 {
					t.Errorf("Camera.Attached = %+v", a)
				}
				if len(a.IgnoreTags) != 1 || a.IgnoreTags[0] != "foliage" {
					t.Errorf("IgnoreTags = %v", a.IgnoreTags)
				}
				if cfg.Console.Enabled || cfg.Console.MovePulse != 250*time.Millisecond {
					t.Errorf("Console = %+v", cfg.Console)
				}
			},
		},
		{
			name:       "文件不存在",
			createFile: false,
			wantErr:    true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if !os.IsNotExist(err) {
					t.Errorf("期望文件不存在错误，实际: %v", err)
				}
			},
		},
		{
			name:       "YAML格式错误",
			createFile: true,
			content: `camera:
  mode: "follow"
  follow:
    min_radius: [5
`,
			wantErr: true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if err == nil || !strings.Contains(err.Error(), "yaml") {
					t.Errorf("期望返回YAML解析错误，实际: %v", err)
				}
			},
		},
		{
			name:       "空文件",
			createFile: true,
			content:    "",
			wantErr:    false,
			validate: func(t *testing.T, cfg *Config, err error) {
				// 空文件得到默认配置。
				def := Default()
				if cfg.Camera.Mode != def.Camera.Mode || cfg.Camera.Follow != def.Camera.Follow {
					t.Errorf("Camera 应为默认值，实际 %+v", cfg.Camera)
				}
				if cfg.Character != def.Character {
					t.Errorf("Character 应为默认值，实际 %+v", cfg.Character)
				}
				if cfg.Frame != def.Frame {
					t.Errorf("Frame 应为默认值，实际 %+v", cfg.Frame)
				}
			},
		},
		{
			name:       "未知相机模式",
			createFile: true,
			content:    "camera:\n  mode: \"orbit\"\n",
			wantErr:    true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("期望 ErrInvalid，实际: %v", err)
				}
			},
		},
		{
			name:       "最小半径大于最大半径",
			createFile: true,
			content:    "camera:\n  follow:\n    min_radius: 12\n    max_radius: 10\n",
			wantErr:    true,
			validate: func(t *testing.T, cfg *Config, err error) {
				if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "min_radius") {
					t.Errorf("期望 min_radius 校验错误，实际: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			configPath := filepath.Join(tempDir, "config.yaml")

			if tt.createFile {
				if err := os.WriteFile(configPath, []byte(tt.content), 0o644); err != nil {
					t.Fatalf("创建测试配置文件失败: %v", err)
				}
			}

			cfg, err := Load(configPath)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && cfg == nil {
				t.Fatalf("Load() 返回了 nil 配置")
			}

			if tt.validate != nil {
				tt.validate(t, cfg, err)
			}
		})
	}
}

// TestValidate 覆盖各项校验规则
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"零移动速度", func(c *Config) { c.Character.MoveSpeed = 0 }},
		{"负转向速度", func(c *Config) { c.Character.TurnSpeed = -1 }},
		{"附着相机距离反转", func(c *Config) { c.Camera.Attached.MinDistance = 9 }},
		{"平滑上限超过1", func(c *Config) { c.Camera.Attached.SmoothingCap = 1.5 }},
		{"零帧间隔", func(c *Config) { c.Frame.TickInterval = 0 }},
		{"空关卡路径", func(c *Config) { c.LevelFile = "" }},
	}

	def := Default()
	if err := def.Validate(); err != nil {
		t.Fatalf("默认配置应通过校验: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, 期望 ErrInvalid", err)
			}
		})
	}
}
