package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Bakefile is the decoded form of a bakefile.
//
//	source: app
//	environment:
//	  deploy:
//	    region: eu
//	tasks:
//	  deploy:
//	    description: Ship it
//	    requires: [build]
//	    timeout: 5m
//	    params:
//	      target: {type: text, required: true}
//	    command: ./deploy.sh {{ .params.target }}
type Bakefile struct {
	Source      string              `mapstructure:"source"`
	Environment map[string]any      `mapstructure:"environment"`
	Tasks       map[string]TaskSpec `mapstructure:"tasks"`
}

// TaskSpec declares one shell task.
type TaskSpec struct {
	Description string               `mapstructure:"description"`
	Notes       string               `mapstructure:"notes"`
	Base        string               `mapstructure:"base"`
	Requires    []string             `mapstructure:"requires"`
	Params      map[string]ParamSpec `mapstructure:"params"`
	Timeout     time.Duration        `mapstructure:"timeout"`
	DryRun      *bool                `mapstructure:"dry_run"`
	Interactive bool                 `mapstructure:"interactive"`

	// Command and Commands are text/template sources rendered against the
	// task's environment. Commands run in order and stop at the first failure.
	Command  string            `mapstructure:"command"`
	Commands []string          `mapstructure:"commands"`
	Dir      string            `mapstructure:"dir"`
	Env      map[string]string `mapstructure:"env"`
}

// ParamSpec declares one task parameter.
type ParamSpec struct {
	Type        string `mapstructure:"type"`
	Required    bool   `mapstructure:"required"`
	Default     any    `mapstructure:"default"`
	Hidden      bool   `mapstructure:"hidden"`
	Description string `mapstructure:"description"`
}

// Parser converts raw bakefile bytes into a Bakefile.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes YAML (JSON is a subset) into a Bakefile.
func (p *Parser) Parse(data []byte) (*Bakefile, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse bakefile: %w", err)
	}

	var bf Bakefile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &bf,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			shorthandParamHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid bakefile: %w", err)
	}

	for name, task := range bf.Tasks {
		if task.Command != "" && len(task.Commands) > 0 {
			return nil, fmt.Errorf("task %s: command and commands are mutually exclusive", name)
		}
	}
	return &bf, nil
}

// ParseFile reads and decodes the bakefile at path. When the file does not
// name a source, the file name without extension is used.
func (p *Parser) ParseFile(path string) (*Bakefile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bakefile: %w", err)
	}
	bf, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if bf.Source == "" {
		base := filepath.Base(path)
		bf.Source = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return bf, nil
}

// shorthandParamHook lets a parameter be declared by its type name alone:
//
//	params:
//	  target: text
func shorthandParamHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(ParamSpec{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"type": data}, nil
}
