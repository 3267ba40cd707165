package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apple/pkl-go/pkl"
	"gopkg.in/yaml.v3"

	"github.com/picklr-io/stackctl/internal/ir"
	"github.com/picklr-io/stackctl/internal/stackerr"
)

// Evaluator loads stack config documents. JSON is the native format; YAML
// and PKL documents are converted to the same JSON shape first, so property
// values look alike whatever format they were written in.
type Evaluator struct {
	properties map[string]string
}

// NewEvaluator returns an evaluator. properties are passed to PKL configs as
// external properties (read with read("prop:<name>")).
func NewEvaluator(properties map[string]string) *Evaluator {
	return &Evaluator{properties: properties}
}

// LoadConfig reads the config document at path, choosing the format from
// the file extension.
func (e *Evaluator) LoadConfig(ctx context.Context, path string) (*ir.StackConfig, error) {
	var (
		data []byte
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = os.ReadFile(path)
	case ".yaml", ".yml":
		data, err = e.yamlToJSON(path)
	case ".pkl":
		data, err = e.pklToJSON(ctx, path)
	default:
		return nil, stackerr.NewConfigurationError("", fmt.Sprintf("unsupported config format %q (use .json, .yaml, .yml or .pkl)", ext), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	cfg, err := DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig parses a JSON stack config. Numbers inside properties are
// kept as json.Number.
func DecodeConfig(data []byte) (*ir.StackConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var cfg ir.StackConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, stackerr.NewConfigurationError("", "config is not a valid document", err)
	}
	return &cfg, nil
}

func (e *Evaluator) yamlToJSON(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, stackerr.NewConfigurationError("", "config is not valid YAML", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		// yaml.v3 yields map[any]any for mappings with non-string keys.
		return nil, stackerr.NewConfigurationError("", "config mapping keys must be strings", err)
	}
	return out, nil
}

func (e *Evaluator) pklToJSON(ctx context.Context, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	opts := []func(*pkl.EvaluatorOptions){
		pkl.PreconfiguredOptions,
		func(o *pkl.EvaluatorOptions) {
			o.OutputFormat = "json"
		},
	}
	if len(e.properties) > 0 {
		opts = append(opts, func(o *pkl.EvaluatorOptions) {
			if o.Properties == nil {
				o.Properties = make(map[string]string)
			}
			for k, v := range e.properties {
				o.Properties[k] = v
			}
		})
	}

	evaluator, err := pkl.NewEvaluator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create PKL evaluator: %w", err)
	}
	defer evaluator.Close()

	text, err := evaluator.EvaluateOutputText(ctx, pkl.FileSource(abs))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate config: %w", err)
	}
	return []byte(text), nil
}
