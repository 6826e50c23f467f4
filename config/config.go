// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads Rasterize operator settings from TOML.
//
//	name = "silhouette"
//	width = 256
//	height = 256
//
//	[clear]
//	r = 0.0
//	depth = 1.0
//
//	[shaders]
//	vertex = "#version 430\nvoid main() { }\n"
//	geometry_file = "shaders/mesh.geom"
//	fragment_file = "shaders/depth.frag"
//
//	[[variables]]
//	name = "view_projection_matrix"
//	kind = "mat"
//
//	[pool]
//	max_idle = 4
//
//	[context]
//	device = 0
//
// Shader files are resolved relative to the directory of the config file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/headless/glcontext"
	"github.com/gogpu/headless/op"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the file form of op.Config.
type Config struct {
	Name      string     `toml:"name"`
	Width     int        `toml:"width"`
	Height    int        `toml:"height"`
	Clear     Clear      `toml:"clear"`
	Shaders   Shaders    `toml:"shaders"`
	Variables []Variable `toml:"variables"`
	Pool      Pool       `toml:"pool"`
	Context   Context    `toml:"context"`
}

// Clear holds the clear color and depth.
type Clear struct {
	R     float64  `toml:"r"`
	G     float64  `toml:"g"`
	B     float64  `toml:"b"`
	Depth *float64 `toml:"depth"`
}

// Shaders holds GLSL sources, inline or as file paths. Setting both forms
// of one stage is an error. Geometry may be left out.
type Shaders struct {
	Vertex       string `toml:"vertex"`
	VertexFile   string `toml:"vertex_file"`
	Geometry     string `toml:"geometry"`
	GeometryFile string `toml:"geometry_file"`
	Fragment     string `toml:"fragment"`
	FragmentFile string `toml:"fragment_file"`
}

// Variable declares one shader input.
type Variable struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`
}

// Pool sizes the rasterizer pool.
type Pool struct {
	MaxSize        int `toml:"max_size"`
	MaxIdle        int `toml:"max_idle"`
	FactoryRetries int `toml:"factory_retries"`
}

// Context selects the EGL device and GL version.
type Context struct {
	Device  int `toml:"device"`
	GLMajor int `toml:"gl_major"`
	GLMinor int `toml:"gl_minor"`
}

// Load reads and validates the config at path and inlines its shader files.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Shaders.inline(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates TOML. Unknown keys are errors. Shader files
// are not read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config: line %d, column %d: %w", row, col, err)
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("config: %w:\n%s", err, serr.String())
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Width <= 0 || c.Height <= 0 {
		bad("output size %dx%d", c.Width, c.Height)
	}
	for _, v := range []float64{c.Clear.R, c.Clear.G, c.Clear.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad("clear color component %v", v)
		}
	}
	if d := c.Clear.Depth; d != nil && (*d < 0 || *d > 1) {
		bad("clear depth %v outside [0, 1]", *d)
	}
	for _, s := range c.Shaders.stages() {
		switch {
		case *s.inline != "" && *s.file != "":
			bad("%s shader given both inline and as a file", s.name)
		case s.required && *s.inline == "" && *s.file == "":
			bad("%s shader missing", s.name)
		}
	}
	if _, err := c.variables(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.Pool.MaxSize < 0 || c.Pool.MaxIdle < 0 || c.Pool.FactoryRetries < 0 {
		bad("negative pool setting %+v", c.Pool)
	}
	if c.Context.Device < 0 {
		bad("device index %d", c.Context.Device)
	}
	if c.Context.GLMajor == 0 && c.Context.GLMinor != 0 {
		bad("gl_minor %d without gl_major", c.Context.GLMinor)
	}
	return errors.Join(errs...)
}

func (c *Config) variables() ([]op.Variable, error) {
	names := make([]string, len(c.Variables))
	kinds := make([]string, len(c.Variables))
	for i, v := range c.Variables {
		names[i], kinds[i] = v.Name, v.Kind
	}
	return op.Variables(names, kinds)
}

// ContextOptions maps the [context] table to context options.
func (c *Config) ContextOptions() []glcontext.Option {
	opts := []glcontext.Option{glcontext.WithDevice(c.Context.Device)}
	if c.Context.GLMajor > 0 {
		opts = append(opts, glcontext.WithGLVersion(c.Context.GLMajor, c.Context.GLMinor))
	}
	return opts
}

// OpConfig converts c to an operator configuration. Shader files must have
// been inlined, which Load does.
func (c *Config) OpConfig() (op.Config, error) {
	if c.Shaders.VertexFile != "" || c.Shaders.GeometryFile != "" || c.Shaders.FragmentFile != "" {
		return op.Config{}, fmt.Errorf("%w: shader files not loaded", ErrInvalid)
	}
	vars, err := c.variables()
	if err != nil {
		return op.Config{}, err
	}
	var depth *float32
	if c.Clear.Depth != nil {
		d := float32(*c.Clear.Depth)
		depth = &d
	}
	return op.Config{
		Name:           c.Name,
		Height:         c.Height,
		Width:          c.Width,
		ClearColor:     gputypes.Color{R: c.Clear.R, G: c.Clear.G, B: c.Clear.B, A: 1},
		ClearDepth:     depth,
		VertexShader:   c.Shaders.Vertex,
		GeometryShader: c.Shaders.Geometry,
		FragmentShader: c.Shaders.Fragment,
		Variables:      vars,
		MaxIdle:        c.Pool.MaxIdle,
		MaxSize:        c.Pool.MaxSize,
		FactoryRetries: c.Pool.FactoryRetries,
		Context:        c.ContextOptions(),
	}, nil
}

type stage struct {
	name         string
	inline, file *string
	required     bool
}

func (s *Shaders) stages() []stage {
	return []stage{
		{"vertex", &s.Vertex, &s.VertexFile, true},
		{"geometry", &s.Geometry, &s.GeometryFile, false},
		{"fragment", &s.Fragment, &s.FragmentFile, true},
	}
}

// inline replaces file references with the file contents.
func (s *Shaders) inline(dir string) error {
	for _, st := range s.stages() {
		if *st.file == "" {
			continue
		}
		path := *st.file
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s shader: %w", st.name, err)
		}
		*st.inline = string(src)
		*st.file = ""
	}
	return nil
}
