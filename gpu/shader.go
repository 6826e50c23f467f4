// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/gogpu/naga"

	"github.com/gogpu/headless/internal/cache"
)

// Stage is a shader pipeline stage. The values are the GL shader type enums.
type Stage uint32

// Shader stages.
const (
	StageVertex         Stage = gl.VERTEX_SHADER
	StageTessControl    Stage = gl.TESS_CONTROL_SHADER
	StageTessEvaluation Stage = gl.TESS_EVALUATION_SHADER
	StageGeometry       Stage = gl.GEOMETRY_SHADER
	StageFragment       Stage = gl.FRAGMENT_SHADER
	StageCompute        Stage = gl.COMPUTE_SHADER
)

var stageNames = map[Stage]string{
	StageVertex:         "vertex",
	StageTessControl:    "tess_control",
	StageTessEvaluation: "tess_evaluation",
	StageGeometry:       "geometry",
	StageFragment:       "fragment",
	StageCompute:        "compute",
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// String returns the lowercase stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%#x)", uint32(s))
}

// ParseStage parses a stage name as returned by Stage.String. Short forms
// "vert", "geom", "frag" and "comp" are accepted too.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vertex", "vert":
		return StageVertex, nil
	case "tess_control", "tesc":
		return StageTessControl, nil
	case "tess_evaluation", "tese":
		return StageTessEvaluation, nil
	case "geometry", "geom":
		return StageGeometry, nil
	case "fragment", "frag":
		return StageFragment, nil
	case "compute", "comp":
		return StageCompute, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedStage, name)
	}
}

// Language is the form a shader is supplied in.
type Language int

const (
	// LanguageGLSL is GLSL source compiled by the driver.
	LanguageGLSL Language = iota
	// LanguageWGSL is WGSL source translated to SPIR-V by naga.
	LanguageWGSL
	// LanguageSPIRV is a SPIR-V binary module.
	LanguageSPIRV
)

// String returns the language name.
func (l Language) String() string {
	switch l {
	case LanguageGLSL:
		return "glsl"
	case LanguageWGSL:
		return "wgsl"
	case LanguageSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// ShaderSource is one stage of a program.
//
// WGSL and SPIR-V shaders are loaded through GL_ARB_gl_spirv, which needs a
// GL 4.6 context or the extension.
type ShaderSource struct {
	Code       string // GLSL or WGSL text
	Binary     []byte // SPIR-V module for LanguageSPIRV
	Stage      Stage
	Language   Language
	EntryPoint string // SPIR-V entry point, default "main"
}

func (s ShaderSource) entryPoint() string {
	if s.EntryPoint == "" {
		return "main"
	}
	return s.EntryPoint
}

// wgslStages are the stages WGSL can express.
var wgslStages = map[Stage]bool{
	StageVertex:   true,
	StageFragment: true,
	StageCompute:  true,
}

// compileShader creates and compiles one shader object. On failure the
// shader object is deleted again and the error carries the compiler log.
func compileShader(src ShaderSource) (uint32, error) {
	if !src.Stage.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedStage, src.Stage)
	}

	var spirv []byte
	switch src.Language {
	case LanguageGLSL:
	case LanguageWGSL:
		if !wgslStages[src.Stage] {
			return 0, fmt.Errorf("%w: %s shaders cannot be written in WGSL", ErrUnsupportedStage, src.Stage)
		}
		var err error
		spirv, err = translateWGSL(src.Code)
		if err != nil {
			return 0, fmt.Errorf("gpu: translating WGSL %s shader: %w", src.Stage, err)
		}
	case LanguageSPIRV:
		spirv = src.Binary
	default:
		return 0, fmt.Errorf("gpu: unknown shader language %s", src.Language)
	}

	shader := gl.CreateShader(uint32(src.Stage))
	if err := Check("glCreateShader"); err != nil {
		return 0, err
	}
	if shader == 0 {
		return 0, errorAt(0, "glCreateShader", 0, "")
	}

	var err error
	if spirv != nil {
		err = loadSPIRV(shader, spirv, src.entryPoint())
	} else {
		err = compileGLSL(shader, src.Code)
	}
	if err != nil {
		gl.DeleteShader(shader)
		return 0, err
	}
	return shader, nil
}

// spirvModules holds translated WGSL keyed by source digest. Modules do not
// belong to any context, so every pooled rasterizer shares them.
var spirvModules = cache.New[[sha256.Size]byte, []byte](64)

func translateWGSL(code string) ([]byte, error) {
	return spirvModules.GetOrCreate(sha256.Sum256([]byte(code)), func() ([]byte, error) {
		return naga.Compile(code)
	})
}

func compileGLSL(shader uint32, code string) error {
	csrc, free := gl.Strs(code + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	if err := Check("glShaderSource"); err != nil {
		return err
	}
	gl.CompileShader(shader)
	if err := Check("glCompileShader"); err != nil {
		return err
	}
	return compileStatus(shader, "glCompileShader")
}

func loadSPIRV(shader uint32, module []byte, entry string) error {
	if len(module) == 0 || len(module)%4 != 0 {
		return fmt.Errorf("%w: SPIR-V module of %d bytes", ErrBufferSize, len(module))
	}
	gl.ShaderBinary(1, &shader, gl.SHADER_BINARY_FORMAT_SPIR_V, gl.Ptr(module), int32(len(module)))
	if err := Check("glShaderBinary"); err != nil {
		return err
	}
	gl.SpecializeShader(shader, gl.Str(entry+"\x00"), 0, nil, nil)
	if err := Check("glSpecializeShader"); err != nil {
		return err
	}
	return compileStatus(shader, "glSpecializeShader")
}

func compileStatus(shader uint32, op string) error {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return nil
	}
	var n int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
	log := strings.Repeat("\x00", int(n+1))
	gl.GetShaderInfoLog(shader, n, nil, gl.Str(log))
	return errorAt(1, op, 0, log)
}
