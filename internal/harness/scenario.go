package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/formlogic/internal/compiler"
	"github.com/roach88/formlogic/internal/form"
	"github.com/roach88/formlogic/internal/submission"
)

// Scenario is a form plus the submissions to run against it.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Form is an inline form document. Exactly one of Form and FormFile is set.
	Form map[string]any `yaml:"form,omitempty"`

	// FormFile is a .cue, .json or .yaml form file. Relative paths are
	// resolved against the base path given at load time.
	FormFile string `yaml:"form_file,omitempty"`

	// FormID selects one form when FormFile declares several.
	FormID string `yaml:"form_id,omitempty"`

	// Now pins the clock used by date validation (RFC 3339). Empty means
	// testutil.DefaultNow.
	Now string `yaml:"now,omitempty"`

	// Submissions run in order.
	Submissions []Submission `yaml:"submissions"`
}

// Submission is one response set and its expected decision.
type Submission struct {
	Name      string           `yaml:"name"`
	Responses []map[string]any `yaml:"responses"`
	Expect    *Expect          `yaml:"expect,omitempty"`
}

// Expect lists the decision properties a submission must have. Unset
// keys are not checked.
type Expect struct {
	Accepted      *bool    `yaml:"accepted,omitempty"`
	Visible       []string `yaml:"visible,omitempty"`
	Hidden        []string `yaml:"hidden,omitempty"`
	Blocked       string   `yaml:"blocked,omitempty"`
	ErrorCode     string   `yaml:"error_code,omitempty"`
	InvalidFields []string `yaml:"invalid_fields,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative
// form_file is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative form_file against basePath.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.FormFile != "" && !filepath.IsAbs(scenario.FormFile) && basePath != "" {
		scenario.FormFile = filepath.Join(basePath, scenario.FormFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Form == nil && s.FormFile == "":
		return fmt.Errorf("one of form or form_file is required")
	case s.Form != nil && s.FormFile != "":
		return fmt.Errorf("form and form_file are mutually exclusive")
	case s.FormFile != "":
		if _, err := os.Stat(s.FormFile); os.IsNotExist(err) {
			return fmt.Errorf("form file not found: %s", s.FormFile)
		}
	}

	if s.Now != "" {
		if _, err := time.Parse(time.RFC3339, s.Now); err != nil {
			return fmt.Errorf("now: %w", err)
		}
	}

	if len(s.Submissions) == 0 {
		return fmt.Errorf("submissions list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(s.Submissions))
	for i, sub := range s.Submissions {
		if sub.Name == "" {
			return fmt.Errorf("submissions[%d]: name is required", i)
		}
		if seen[sub.Name] {
			return fmt.Errorf("submissions[%d]: duplicate name %q", i, sub.Name)
		}
		seen[sub.Name] = true
		if sub.Responses == nil {
			return fmt.Errorf("submissions[%d]: responses is required (use [] for none)", i)
		}
		if err := validateExpect(i, sub.Expect); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e *Expect) error {
	if e == nil {
		return nil
	}
	switch submission.ErrorCode(e.ErrorCode) {
	case "", submission.ErrCodeConflict, submission.ErrCodeMalformed,
		submission.ErrCodePrevented, submission.ErrCodeValidation:
	default:
		return fmt.Errorf("submissions[%d].expect: unknown error_code %q", index, e.ErrorCode)
	}
	if e.Accepted != nil && *e.Accepted {
		if e.ErrorCode != "" || e.Blocked != "" || len(e.InvalidFields) > 0 {
			return fmt.Errorf("submissions[%d].expect: an accepted submission cannot also expect an error", index)
		}
	}
	return nil
}

// LoadForm resolves the scenario's form.
func (s *Scenario) LoadForm() (*form.Form, error) {
	if s.Form != nil {
		data, err := json.Marshal(s.Form)
		if err != nil {
			return nil, fmt.Errorf("inline form: %w", err)
		}
		return form.Decode(data)
	}

	forms, err := compiler.LoadFile(s.FormFile)
	if err != nil {
		return nil, err
	}
	if s.FormID == "" {
		if len(forms) != 1 {
			return nil, fmt.Errorf("%s declares %d forms; set form_id", s.FormFile, len(forms))
		}
		return forms[0], nil
	}
	for _, f := range forms {
		if f.ID == s.FormID {
			return f, nil
		}
	}
	return nil, fmt.Errorf("form %q not found in %s", s.FormID, s.FormFile)
}

// decodeResponses converts YAML-decoded responses to form responses.
func decodeResponses(raw []map[string]any) ([]form.Response, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return form.DecodeResponses(data)
}
