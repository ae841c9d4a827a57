// Package job reads YAML batch manifests: a list of sources to assemble,
// each with an output format and destination.
package job

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/format"
)

// Manifest is the root of a job file.
type Manifest struct {
	Defaults Defaults `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Jobs     []Job    `yaml:"jobs" json:"jobs" validate:"required,min=1,dive" jsonschema:"minItems=1"`

	// BaseDir resolves relative paths. Load sets it to the manifest's
	// directory.
	BaseDir string `yaml:"-" json:"-"`
}

// Defaults apply to every job that leaves the field empty.
type Defaults struct {
	Format    string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,asmformat" jsonschema:"description=Output format used when a job names none"`
	OutputDir string `yaml:"output_dir,omitempty" json:"output_dir,omitempty" jsonschema:"description=Directory for relative job outputs"`
}

// Job assembles one source file.
type Job struct {
	Name   string `yaml:"name" json:"name" validate:"required" jsonschema:"description=Unique job name"`
	Source string `yaml:"source" json:"source" validate:"required" jsonschema:"description=Assembly source path"`
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,asmformat" jsonschema:"description=Output format name or code"`
	Output string `yaml:"output,omitempty" json:"output,omitempty" jsonschema:"description=Destination file; omitted outputs are only summarized"`
}

// validate is a package-level singleton; building a validator is
// expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("asmformat", func(fl validator.FieldLevel) bool {
		_, err := format.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, &errors.ConfigError{Err: fmt.Errorf("failed to parse manifest: %w", err)}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.BaseDir = filepath.Dir(path)
	return m, nil
}

// Validate checks struct tags and job name uniqueness. Each problem is
// a *errors.ConfigError; several are joined.
func (m *Manifest) Validate() error {
	var errs []error
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !stdErrors.As(err, &verrs) {
			return &errors.ConfigError{Err: err}
		}
		for _, fe := range verrs {
			errs = append(errs, &errors.ConfigError{
				Field: strings.TrimPrefix(fe.Namespace(), "Manifest."),
				Err:   fieldProblem(fe),
			})
		}
	}

	seen := make(map[string]int)
	for i, j := range m.Jobs {
		if j.Name == "" {
			continue
		}
		if first, dup := seen[j.Name]; dup {
			errs = append(errs, &errors.ConfigError{
				Field: fmt.Sprintf("jobs[%d].name", i),
				Err:   fmt.Errorf("duplicate job name %q (first used by jobs[%d])", j.Name, first),
			})
			continue
		}
		seen[j.Name] = i
	}
	return stdErrors.Join(errs...)
}

func fieldProblem(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("is required")
	case "min":
		return fmt.Errorf("needs at least %s entries", fe.Param())
	case "asmformat":
		return &errors.FormatError{Value: fmt.Sprint(fe.Value())}
	}
	return fmt.Errorf("failed %q check", fe.Tag())
}

// FormatOf returns the job's format, falling back to the defaults and
// then to hexdump.
func (m *Manifest) FormatOf(j Job) (format.Format, error) {
	name := j.Format
	if name == "" {
		name = m.Defaults.Format
	}
	if name == "" {
		return format.HexDump, nil
	}
	return format.Parse(name)
}

// SourcePath resolves j.Source against BaseDir.
func (m *Manifest) SourcePath(j Job) string {
	return m.resolve(m.BaseDir, j.Source)
}

// OutputPath resolves j.Output against the default output directory and
// BaseDir. It is empty when the job writes no file.
func (m *Manifest) OutputPath(j Job) string {
	if j.Output == "" {
		return ""
	}
	return m.resolve(m.resolve(m.BaseDir, m.Defaults.OutputDir), j.Output)
}

func (m *Manifest) resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
