package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/composekit/llm"
	"github.com/BaSui01/composekit/prompt"
	"github.com/BaSui01/composekit/structured"
)

// Definition 是 flow 的文档形式，支持 YAML 与 JSON：
//
//	name: product-sheet
//	defaults:
//	  temperature: 0.2
//	  retries: 1
//	steps:
//	  - name: idea
//	    prompt: "Invent a product for {{audience}}"
//	    variables: {audience: hikers}
//	    schema:
//	      type: object
//	      fields: {name: string, price: number}
//	  - prompt: "Write a tagline for {{results.step1.name}}"
type Definition struct {
	Name     string           `yaml:"name" json:"name"`
	Defaults *DefaultsDef     `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Steps    []StepDefinition `yaml:"steps" json:"steps"`
}

// DefaultsDef 步骤默认选项
type DefaultsDef struct {
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Retries     int      `yaml:"retries,omitempty" json:"retries,omitempty"`
}

// StepDefinition 单个步骤定义
type StepDefinition struct {
	Name      string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Prompt    string                 `yaml:"prompt" json:"prompt"`
	Variables map[string]any         `yaml:"variables,omitempty" json:"variables,omitempty"`
	Schema    *structured.Definition `yaml:"schema,omitempty" json:"schema,omitempty"`
	Retries   *int                   `yaml:"retries,omitempty" json:"retries,omitempty"`
}

// ParseDefinition 解析 YAML 或 JSON 文档并校验
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse flow definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinition 从文件加载 flow 定义
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return ParseDefinition(data)
}

// Validate 检查步骤非空、模板安全、重试预算范围与 Schema
func (d *Definition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", d.Name)
	}
	if d.Defaults != nil {
		if _, err := llm.NormalizeOptions(d.Options(llm.DefaultCompletionOptions())); err != nil {
			return fmt.Errorf("flow defaults: %w", err)
		}
	}
	for i, s := range d.Steps {
		n := i + 1
		if s.Prompt == "" {
			return fmt.Errorf("step %d: prompt is required", n)
		}
		if err := prompt.CheckTemplate(s.Prompt); err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}
		if s.Retries != nil && (*s.Retries < 0 || *s.Retries > llm.MaxRetries) {
			return fmt.Errorf("step %d: retries must be between 0 and %d", n, llm.MaxRetries)
		}
		if s.Schema != nil {
			if _, err := s.Schema.Build(); err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
		}
	}
	return nil
}

// Options 把 defaults 叠加到 base 上
func (d *Definition) Options(base llm.CompletionOptions) llm.CompletionOptions {
	if d.Defaults == nil {
		return base
	}
	if d.Defaults.Temperature != nil {
		base.Temperature = *d.Defaults.Temperature
	}
	if d.Defaults.MaxTokens > 0 {
		base.MaxTokens = d.Defaults.MaxTokens
	}
	base.Retries = d.Defaults.Retries
	return base
}

// BuildSteps 把定义转换为可执行步骤
func (d *Definition) BuildSteps() ([]Step, error) {
	steps := make([]Step, 0, len(d.Steps))
	for i, s := range d.Steps {
		step := Step{
			Name:      s.Name,
			Prompt:    s.Prompt,
			Variables: s.Variables,
			Retries:   s.Retries,
		}
		if s.Schema != nil {
			schema, err := s.Schema.Build()
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			step.Schema = schema
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// NewFromDefinition 根据定义创建 flow；defaults 会叠加到 WithDefaults 之上。
func NewFromDefinition(provider llm.Provider, def *Definition, opts ...Option) (*Flow, error) {
	steps, err := def.BuildSteps()
	if err != nil {
		return nil, err
	}
	f := New(provider, opts...)
	f.defaults = def.Options(f.defaults)
	return f.AddSteps(steps...), nil
}
