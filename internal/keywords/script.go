// internal/keywords/script.go
package keywords

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUndefinedVariable is returned when a step references a variable that no
// earlier step saved.
var ErrUndefinedVariable = errors.New("undefined variable")

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Step is one keyword invocation in a script.
type Step struct {
	Keyword string   `yaml:"keyword"`
	Args    []string `yaml:"args,omitempty"`
	// Save stores the keyword's result under this variable name.
	Save string `yaml:"save,omitempty"`
}

// Script is an ordered list of keyword steps.
type Script struct {
	Name  string            `yaml:"name"`
	Vars  map[string]string `yaml:"vars,omitempty"`
	Steps []Step            `yaml:"steps"`
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("script has no steps")
	}
	for i, step := range s.Steps {
		if step.Keyword == "" {
			return nil, fmt.Errorf("step %d: keyword is required", i+1)
		}
	}
	return &s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Expand substitutes ${name} references from vars.
func Expand(arg string, vars map[string]string) (string, error) {
	var missing string
	out := varPattern.ReplaceAllStringFunc(arg, func(m string) string {
		name := varPattern.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("%w: ${%s}", ErrUndefinedVariable, missing)
	}
	return out, nil
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step   Step
	Output string
}

// RunScript executes the steps in order and stops at the first failure. It
// returns the results of the steps that ran and the final variables.
func (r *Registry) RunScript(ctx context.Context, s *Script, logger *zap.Logger) ([]StepResult, map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	vars := make(map[string]string, len(s.Vars))
	for k, v := range s.Vars {
		vars[k] = v
	}

	results := make([]StepResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		args := make([]string, len(step.Args))
		for j, a := range step.Args {
			expanded, err := Expand(a, vars)
			if err != nil {
				return results, vars, fmt.Errorf("step %d (%s): %w", i+1, step.Keyword, err)
			}
			args[j] = expanded
		}

		logger.Info("Running keyword.", zap.Int("step", i+1), zap.String("keyword", step.Keyword), zap.Strings("args", args))
		out, err := r.Run(ctx, step.Keyword, args)
		if err != nil {
			return results, vars, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Save != "" {
			vars[step.Save] = out
		}
		results = append(results, StepResult{Step: step, Output: out})
	}
	return results, vars, nil
}
