// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command rasterize renders one frame with a TOML-configured operator and
// writes it as PNG or TIFF.
//
//	rasterize -config raster.toml -var triangular_mesh=mesh.txt \
//	    -var view_projection_matrix=camera.txt -output frame.png
//
// Variable files hold whitespace-separated floats. A matrix file has one row
// per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/gogpu/headless"
	"github.com/gogpu/headless/config"
	"github.com/gogpu/headless/op"
)

// varFlags collects repeated -var name=path flags.
type varFlags map[string]string

func (v varFlags) String() string { return fmt.Sprint(map[string]string(v)) }

func (v varFlags) Set(s string) error {
	name, path, ok := strings.Cut(s, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("want name=path, got %q", s)
	}
	v[name] = path
	return nil
}

func main() {
	vars := varFlags{}
	var (
		configPath = flag.String("config", "rasterize.toml", "operator config file")
		points     = flag.Int("points", -1, "points to draw; -1 uses the first buffer's length / 9")
		output     = flag.String("output", "frame.png", "output file (.png, .tif or .tiff)")
		flip       = flag.Bool("flip", true, "flip rows so the image is upright")
		verbose    = flag.Bool("v", false, "log at debug level")
	)
	flag.Var(vars, "var", "variable file as name=path (repeatable)")
	flag.Parse()

	if *verbose {
		headless.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	oc, err := cfg.OpConfig()
	if err != nil {
		log.Fatal(err)
	}

	values, n, err := loadValues(oc.Variables, vars)
	if err != nil {
		log.Fatal(err)
	}
	if *points >= 0 {
		n = *points
	}

	r, err := op.New(oc)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	img, err := r.Compute(context.Background(), n, values)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if *flip {
		img.FlipVertical()
	}

	if err := save(*output, img.NRGBA64()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d, %d points)\n", *output, img.Width, img.Height, n)
}

// loadValues reads one file per declared variable and returns the values in
// declaration order with the default point count.
func loadValues(decl []op.Variable, files varFlags) ([]op.Tensor, int, error) {
	values := make([]op.Tensor, len(decl))
	points := 0
	pointsSet := false
	for i, v := range decl {
		path, ok := files[v.Name]
		if !ok {
			return nil, 0, fmt.Errorf("no -var given for %s variable %q", v.Kind, v.Name)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, err
		}
		rows, err := readRows(f)
		f.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		t, err := tensorFor(v.Kind, rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		values[i] = t
		if v.Kind == op.KindBuffer && !pointsSet {
			points, pointsSet = len(t.Data)/9, true
		}
	}
	for name := range files {
		if !declared(decl, name) {
			return nil, 0, fmt.Errorf("variable %q is not declared in the config", name)
		}
	}
	return values, points, nil
}

func declared(decl []op.Variable, name string) bool {
	for _, v := range decl {
		if v.Name == name {
			return true
		}
	}
	return false
}

func save(path string, img image.Image) error {
	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = png.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("unknown image format %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
