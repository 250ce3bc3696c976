package candidate

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ResumeFile loads a resume from a YAML or JSON profile.
type ResumeFile struct {
	path string
}

func NewResumeFile(path string) *ResumeFile {
	return &ResumeFile{path: path}
}

func (f *ResumeFile) Resume(ctx context.Context) (*Resume, error) {
	var r Resume
	if err := loadProfile(ctx, f.path, &r); err != nil {
		return nil, fmt.Errorf("loading resume: %w", err)
	}
	return &r, nil
}

// JobFile loads a job description from a YAML or JSON profile.
type JobFile struct {
	path string
}

func NewJobFile(path string) *JobFile {
	return &JobFile{path: path}
}

func (f *JobFile) JobDescription(ctx context.Context) (*JobDescription, error) {
	var jd JobDescription
	if err := loadProfile(ctx, f.path, &jd); err != nil {
		return nil, fmt.Errorf("loading job description: %w", err)
	}
	return &jd, nil
}

func loadProfile(ctx context.Context, path string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("profile path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}

	return DecodeProfile(data, out)
}

// DecodeProfile parses YAML (or JSON) into out. Comma separated strings are accepted wherever
// a list is expected, and list entries are trimmed.
func DecodeProfile(data []byte, out any) error {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing profile: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			trimStringsHook,
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decoding profile: %w", err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validating profile: %w", err)
	}
	return nil
}

func trimStringsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.String:
		if s, ok := data.(string); ok {
			return strings.TrimSpace(s), nil
		}
	case reflect.Slice:
		items, ok := data.([]string)
		if !ok {
			return data, nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
	return data, nil
}

// Validate checks a profile built outside of DecodeProfile.
func Validate(profile any) error {
	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("validating profile: %w", err)
	}
	return nil
}
