// Package doctor runs preflight checks on a project before the dashboard
// is started.
package doctor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/harshul/stackdash/internal/config"
	"github.com/harshul/stackdash/internal/errors"
)

// versionTimeout bounds each `<tool> --version` probe.
const versionTimeout = 5 * time.Second

// ToolStatus represents an executable looked up on PATH.
type ToolStatus struct {
	Name      string
	Installed bool
	Version   string
	Path      string
}

// Check is one preflight result.
type Check struct {
	Name   string
	OK     bool
	Detail string
	Hint   string
}

// Diagnosis contains the full preflight results.
type Diagnosis struct {
	ProjectPath string
	Checks      []Check
	Healthy     bool
	Issues      []string
}

// lookup runs `name --version` and resolves its path. Tests replace it.
var lookup = lookupTool

// Diagnose checks the project at root against cfg.
func Diagnose(ctx context.Context, root string, cfg *config.Config) Diagnosis {
	d := Diagnosis{ProjectPath: root, Healthy: true, Issues: []string{}}
	add := d.Add

	add(fileCheck("Project manifest", filepath.Join(root, cfg.Markers.Manifest),
		"Run stackdash from the project root or pass --root"))

	launcher := cfg.Launcher
	if !filepath.IsAbs(launcher) {
		launcher = filepath.Join(root, launcher)
	}
	add(launcherCheck(launcher, cfg.Interpreter))

	if cfg.Interpreter != "" {
		add(toolCheck("Interpreter", lookup(ctx, cfg.Interpreter), "Install "+cfg.Interpreter+" or clear interpreter in the config"))
	}
	add(toolCheck("Supervisor", lookup(ctx, cfg.Supervisor), "Install it with: npm install -g "+cfg.Supervisor))

	if filepath.Base(cfg.Markers.Manifest) == "package.json" {
		add(toolCheck("Node.js", lookup(ctx, "node"), "Install Node.js from https://nodejs.org"))

		manager, lockfile := packageManager(root)
		c := toolCheck("Package manager", lookup(ctx, manager), "Install "+manager+" or remove the stale lock file")
		if c.OK && lockfile != "" {
			c.Detail += ", " + lockfile
		}
		add(c)
	}

	deps := Check{Name: "Dependencies", OK: true, Detail: cfg.Markers.Dependencies + " present"}
	if cfg.Markers.Dependencies != "" {
		if _, err := os.Stat(filepath.Join(root, cfg.Markers.Dependencies)); err != nil {
			deps.OK = false
			deps.Detail = cfg.Markers.Dependencies + " not found"
			deps.Hint = "Run the install action"
		}
		add(deps)
	}

	if err := cfg.Validate(); err != nil {
		add(Check{Name: "Configuration", Detail: strings.TrimSpace(err.Error())})
	} else {
		add(Check{Name: "Configuration", OK: true, Detail: "valid"})
	}

	return d
}

// Add records c, marking the diagnosis unhealthy when c failed.
func (d *Diagnosis) Add(c Check) {
	d.Checks = append(d.Checks, c)
	if !c.OK {
		d.Healthy = false
		d.Issues = append(d.Issues, c.Name+": "+c.Detail)
	}
}

// ConfigFileCheck parses the config file at path strictly.
func ConfigFileCheck(path string) Check {
	if _, err := config.Read(path); err != nil {
		return Check{Name: "Config file", Detail: strings.TrimSpace(errors.Summary(err)), Hint: "Fix " + filepath.Base(path) + " or regenerate it with stackdash init"}
	}
	return Check{Name: "Config file", OK: true, Detail: filepath.Base(path) + " parsed"}
}

func fileCheck(name, path, hint string) Check {
	if _, err := os.Stat(path); err != nil {
		return Check{Name: name, Detail: filepath.Base(path) + " not found", Hint: hint}
	}
	return Check{Name: name, OK: true, Detail: path}
}

func launcherCheck(path, interpreter string) Check {
	c := Check{Name: "Launcher"}
	info, err := os.Stat(path)
	if err != nil {
		c.Detail = path + " not found"
		c.Hint = "Create the launcher or set launcher in .stackdash.yaml"
		return c
	}
	if interpreter == "" && info.Mode().Perm()&0o111 == 0 {
		c.Detail = path + " is not executable"
		c.Hint = "chmod +x " + path
		return c
	}
	c.OK = true
	c.Detail = path
	return c
}

func toolCheck(label string, tool ToolStatus, hint string) Check {
	if !tool.Installed {
		return Check{Name: label, Detail: tool.Name + " not found on PATH", Hint: hint}
	}
	detail := tool.Name
	if tool.Version != "" {
		detail += " " + tool.Version
	}
	if tool.Path != "" {
		detail += " (" + tool.Path + ")"
	}
	return Check{Name: label, OK: true, Detail: detail}
}

func lookupTool(ctx context.Context, name string) ToolStatus {
	status := ToolStatus{Name: name}

	path, err := exec.LookPath(name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err == nil {
		lines := strings.Split(strings.TrimSpace(string(out)), "\n")
		status.Version = strings.TrimSpace(lines[len(lines)-1])
	}
	return status
}
