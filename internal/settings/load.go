package settings

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// ConfigError is a project file failure with source position when the
// underlying CUE error carries one.
type ConfigError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadProject reads a project file and validates it against the
// embedded schema. Validation happens before decoding: unknown keys,
// missing required fields, and type mismatches are all reported as
// ConfigErrors, and schema defaults are filled in along the way.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return nil, wrapCUEError(path, err)
	}

	ctx := cuecontext.New()
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return nil, wrapCUEError(path, err)
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling project schema: %w", err)
	}

	unified := doc.Unify(schema.LookupPath(cue.ParsePath("#Project")))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, wrapCUEError(path, err)
	}

	var proj Project
	if err := unified.Decode(&proj); err != nil {
		return nil, wrapCUEError(path, err)
	}
	return &proj, nil
}

// wrapCUEError pulls position info out of a CUE error chain. CUE
// errors can hold several positions; the first one is the most
// specific in practice.
func wrapCUEError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &ConfigError{Path: path, Message: first.Error(), Pos: positions[0]}
	}
	return &ConfigError{Path: path, Message: first.Error()}
}
