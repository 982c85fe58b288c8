package compiler

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/aretw0/bake/pkg/adapters/process"
	"github.com/aretw0/bake/pkg/domain"
)

// commandRunner is the richer side of the process runner: it takes extra
// environment and a working directory. Work runners lacking it fall back to
// domain.Context.Shell.
type commandRunner interface {
	Run(ctx context.Context, cmd process.Command) (process.Result, error)
}

// shellBody runs templated command lines for a bakefile task.
//
// Templates see:
//
//	.task    fullname of the task
//	.params  the task's parameters by local name (nil when unset)
//	.env     the task's whole environment
type shellBody struct {
	lines []*template.Template
	dir   string
	env   map[string]*template.Template
}

func newShellBody(task string, lines []string, dir string, env map[string]string) (*shellBody, error) {
	b := &shellBody{dir: dir, env: make(map[string]*template.Template, len(env))}
	for i, line := range lines {
		tmpl, err := parseTemplate(fmt.Sprintf("%s[%d]", task, i), line)
		if err != nil {
			return nil, err
		}
		b.lines = append(b.lines, tmpl)
	}
	for key, value := range env {
		tmpl, err := parseTemplate(task+".env."+key, value)
		if err != nil {
			return nil, err
		}
		b.env[key] = tmpl
	}
	return b, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl, nil
}

// Run renders and executes every line in order. In dry-run mode the rendered
// lines are only reported.
func (b *shellBody) Run(c *domain.Context) error {
	params := localParams(c)
	data := map[string]any{
		"task":   c.Instance.Definition.Fullname,
		"params": params,
		"env":    c.Environment.Raw(),
	}

	env := process.ExportEnv(process.EnvPrefix, params)
	keys := make([]string, 0, len(b.env))
	for k := range b.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := render(b.env[k], data)
		if err != nil {
			return domain.Failf("env %s: %w", k, err)
		}
		env = append(env, k+"="+v)
	}

	dryRun := c.Runtime != nil && c.Runtime.Mode.DryRun
	for _, tmpl := range b.lines {
		line, err := render(tmpl, data)
		if err != nil {
			return domain.Failf("command: %w", err)
		}
		if dryRun {
			c.Report("[!b]would run:[!] " + line)
			continue
		}
		c.Info("$ " + line)
		if err := b.exec(c, line, env); err != nil {
			return err
		}
	}
	return nil
}

func (b *shellBody) exec(c *domain.Context, line string, env []string) error {
	if c.Runtime == nil || c.Runtime.Work == nil {
		return domain.Failf("no work runner configured")
	}
	runner, ok := c.Runtime.Work.(commandRunner)
	if !ok {
		return c.Shell(line, 0)
	}
	res, err := runner.Run(c.Context(), process.Command{Line: line, Env: env, Dir: b.dir})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return domain.Failf("%w", &domain.ProcessFailedError{Cmdline: line, ExitCode: res.ExitCode})
	}
	return nil
}

func localParams(c *domain.Context) map[string]any {
	def := c.Instance.Definition
	params := make(map[string]any, len(def.Parameters))
	for name := range def.Parameters {
		params[name] = c.Get(name)
	}
	return params
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
