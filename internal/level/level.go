// Package level loads the static world the actor walks on: a heightfield
// terrain, spherical obstacles and the player start.
package level

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/Versifine/roam/internal/collision"
	"github.com/Versifine/roam/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const DefaultTerrainTag = "terrain"

var (
	ErrEmptyTerrain  = errors.New("terrain has no cells")
	ErrRaggedTerrain = errors.New("terrain rows differ in length")
)

type Level struct {
	Name        string     `yaml:"name"`
	Terrain     Terrain    `yaml:"terrain"`
	Obstacles   []Obstacle `yaml:"obstacles"`
	PlayerStart [3]float64 `yaml:"player_start"`
}

// Terrain is a grid of heights. Row j lies at y = Origin[1] + j*Cell and
// column i at x = Origin[0] + i*Cell.
type Terrain struct {
	Tag     string      `yaml:"tag"`
	Origin  [2]float64  `yaml:"origin"`
	Cell    float64     `yaml:"cell"`
	Heights [][]float64 `yaml:"heights"`
}

type Obstacle struct {
	Tag      string     `yaml:"tag"`
	Pos      [3]float64 `yaml:"pos"`
	Radius   float64    `yaml:"radius"`
	Passable bool       `yaml:"passable"`
}

func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

func Parse(data []byte) (*Level, error) {
	lvl := &Level{}
	if err := yaml.Unmarshal(data, lvl); err != nil {
		return nil, fmt.Errorf("parse level yaml: %w", err)
	}
	if lvl.Terrain.Tag == "" {
		lvl.Terrain.Tag = DefaultTerrainTag
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return lvl, nil
}

func (l *Level) Validate() error {
	t := l.Terrain
	if len(t.Heights) < 2 || len(t.Heights[0]) < 2 {
		return ErrEmptyTerrain
	}
	for j, row := range t.Heights {
		if len(row) != len(t.Heights[0]) {
			return fmt.Errorf("row %d has %d heights, want %d: %w", j, len(row), len(t.Heights[0]), ErrRaggedTerrain)
		}
	}
	if t.Cell <= 0 {
		return fmt.Errorf("terrain cell must be positive, got %v", t.Cell)
	}
	for i, o := range l.Obstacles {
		if o.Tag == "" {
			return fmt.Errorf("obstacle %d has no tag", i)
		}
		if o.Radius <= 0 {
			return fmt.Errorf("obstacle %d (%s) radius must be positive, got %v", i, o.Tag, o.Radius)
		}
	}
	return nil
}

func (l *Level) Start() mgl64.Vec3 {
	return mgl64.Vec3(l.PlayerStart)
}

// Build attaches the terrain and obstacle nodes under parent and registers
// their geometry with w. The terrain node is returned.
func (l *Level) Build(parent *scene.Node, w *collision.World) *scene.Node {
	t := l.Terrain
	terrain := parent.AttachNewNode(t.Tag)
	rows, cols := len(t.Heights), len(t.Heights[0])
	for j := 0; j+1 < rows; j++ {
		for i := 0; i+1 < cols; i++ {
			a := l.vertex(i, j)
			b := l.vertex(i+1, j)
			c := l.vertex(i+1, j+1)
			d := l.vertex(i, j+1)
			w.AddTriangle(terrain, a, b, c, collision.MaskAll)
			w.AddTriangle(terrain, a, c, d, collision.MaskAll)
		}
	}

	for _, o := range l.Obstacles {
		node := parent.AttachNewNode(o.Tag)
		node.SetPos(mgl64.Vec3(o.Pos))
		mask := collision.MaskAll
		if o.Passable {
			mask = collision.MaskGround
		}
		w.AddSphere(node, collision.Sphere{Radius: o.Radius}, mask)
	}

	slog.Info("Level built", "name", l.Name, "cells", (rows-1)*(cols-1), "obstacles", len(l.Obstacles), "surfaces", w.SurfaceCount())
	return terrain
}

// HeightAt returns the terrain height under (x, y) on the same triangulation
// Build registers, or false outside the grid.
func (l *Level) HeightAt(x, y float64) (float64, bool) {
	t := l.Terrain
	rows, cols := len(t.Heights), len(t.Heights[0])
	gx := (x - t.Origin[0]) / t.Cell
	gy := (y - t.Origin[1]) / t.Cell
	if gx < 0 || gy < 0 || gx > float64(cols-1) || gy > float64(rows-1) {
		return 0, false
	}
	i := min(int(math.Floor(gx)), cols-2)
	j := min(int(math.Floor(gy)), rows-2)
	fx, fy := gx-float64(i), gy-float64(j)

	h00 := t.Heights[j][i]
	h10 := t.Heights[j][i+1]
	h11 := t.Heights[j+1][i+1]
	h01 := t.Heights[j+1][i]
	if fx >= fy {
		return h00 + fx*(h10-h00) + fy*(h11-h10), true
	}
	return h00 + fy*(h01-h00) + fx*(h11-h01), true
}

func (l *Level) vertex(i, j int) mgl64.Vec3 {
	t := l.Terrain
	return mgl64.Vec3{
		t.Origin[0] + float64(i)*t.Cell,
		t.Origin[1] + float64(j)*t.Cell,
		t.Heights[j][i],
	}
}
