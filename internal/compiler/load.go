// Package compiler loads form definitions from authoring formats and
// lints their logic.
//
// Forms may be written as JSON (the stored document shape), YAML, or CUE.
// A CUE source declares one or more forms under a top-level "form" struct:
//
//	form: contact: {
//		title: "Contact us"
//		form_fields: [...]
//		form_logics: [...]
//	}
//
// The key doubles as the form id when the struct has no "_id".
package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/formlogic/internal/form"
)

//go:embed schema.cue
var schemaSource []byte

// CompileError represents a load error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads the forms in path, choosing the format by extension.
// JSON and YAML files hold exactly one form.
func LoadFile(path string) ([]*form.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(data, path)
	case ".json":
		f, err := LoadJSON(data)
		if err != nil {
			return nil, &CompileError{Field: path, Message: err.Error()}
		}
		return []*form.Form{f}, nil
	case ".yaml", ".yml":
		f, err := LoadYAML(data)
		if err != nil {
			return nil, &CompileError{Field: path, Message: err.Error()}
		}
		return []*form.Form{f}, nil
	default:
		return nil, &CompileError{Field: path, Message: "unsupported form file extension"}
	}
}

// LoadJSON decodes a single form document.
func LoadJSON(data []byte) (*form.Form, error) {
	return form.Decode(data)
}

// LoadYAML decodes a single form written in YAML. The document uses the
// same keys as the JSON form.
func LoadYAML(data []byte) (*form.Form, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("empty form document")
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return form.Decode(js)
}

// LoadCUE compiles a CUE source and decodes every form it declares.
func LoadCUE(src []byte, filename string) ([]*form.Form, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return formsFromValue(ctx, v)
}

// LoadDir loads every .cue file in dir as one CUE package and decodes the
// forms it declares.
func LoadDir(dir string) ([]*form.Form, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return formsFromValue(ctx, v)
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// formSchema compiles the embedded #Form definition in ctx.
func formSchema(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return schema.LookupPath(cue.ParsePath("#Form")), nil
}

func formsFromValue(ctx *cue.Context, v cue.Value) ([]*form.Form, error) {
	schema, err := formSchema(ctx)
	if err != nil {
		return nil, err
	}

	formsVal := v.LookupPath(cue.ParsePath("form"))
	if !formsVal.Exists() {
		return nil, &CompileError{Field: "form", Message: "no forms declared", Pos: v.Pos()}
	}
	iter, err := formsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var forms []*form.Form
	for iter.Next() {
		f, err := compileForm(iter.Label(), schema.Unify(iter.Value()))
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	if len(forms) == 0 {
		return nil, &CompileError{Field: "form", Message: "no forms declared", Pos: formsVal.Pos()}
	}
	return forms, nil
}

func compileForm(key string, v cue.Value) (*form.Form, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	f, err := form.Decode(data)
	if err != nil {
		return nil, &CompileError{Field: "form." + key, Message: err.Error(), Pos: v.Pos()}
	}
	if f.ID == "" {
		f.ID = key
	}
	return f, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
