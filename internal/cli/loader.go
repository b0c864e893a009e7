package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/formlogic/internal/compiler"
	"github.com/roach88/formlogic/internal/form"
)

// LoadError represents an error that occurred while loading forms or
// responses.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadForms loads every form in path. A directory is read as one CUE
// package; a file is read by extension.
func LoadForms(path string) ([]*form.Form, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}

	if !info.IsDir() {
		forms, err := compiler.LoadFile(path)
		if err != nil {
			return nil, convertCompileError(err)
		}
		return forms, nil
	}

	files, err := compiler.FindCUEFiles(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}
	forms, err := compiler.LoadDir(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return forms, nil
}

// SelectForm picks the form with the given id. An empty id selects the
// only form and is an error when there are several.
func SelectForm(forms []*form.Form, id, source string) (*form.Form, error) {
	if id == "" {
		if len(forms) == 1 {
			return forms[0], nil
		}
		ids := make([]string, len(forms))
		for i, f := range forms {
			ids[i] = f.ID
		}
		return nil, &LoadError{
			Code:    ErrCodeFormAmbiguous,
			Message: fmt.Sprintf("%s declares %d forms (%s); choose one with --form", source, len(forms), strings.Join(ids, ", ")),
		}
	}
	for _, f := range forms {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("form %q not found in %s", id, source)}
}

// LoadResponses reads a JSON or YAML list of responses.
func LoadResponses(path string) ([]form.Response, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("responses file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeResponses, Message: fmt.Sprintf("failed to read responses: %v", err)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &LoadError{Code: ErrCodeResponses, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, &LoadError{Code: ErrCodeResponses, Message: fmt.Sprintf("failed to convert YAML: %v", err)}
		}
	}

	responses, err := form.DecodeResponses(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeResponses, Message: err.Error()}
	}
	return responses, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// reportLoadError prints a load failure and returns the command error.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return WrapExitError(ExitCommandError, loadErr.Code, err)
}
