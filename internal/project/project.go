// Package project resolves the project root and checks that it is a
// project the dashboard can operate.
package project

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/harshul/stackdash/internal/errors"
)

// Info describes the project found at Root.
type Info struct {
	// Root is the absolute project directory.
	Root string
	// Name comes from the manifest when it has one, else the directory name.
	Name string
	// Version is the manifest version, if any.
	Version string
	// Scripts lists the manifest's script names.
	Scripts []string
}

// Resolve turns dir (or the working directory when empty) into an
// absolute project root.
func Resolve(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrProject,
				"Cannot determine current directory",
				"Check directory permissions or pass --root")
		}
		dir = cwd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrProject, "Invalid project root: "+dir, "")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrProject,
			"Project root not found: "+abs,
			"Check the --root path")
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrProject, "Project root is not a directory: "+abs, "")
	}
	return abs, nil
}

// Inspect reads the manifest at root/manifest. A missing or unreadable
// manifest is not an error; Name falls back to the directory name.
func Inspect(root, manifest string) Info {
	info := Info{Root: root, Name: filepath.Base(root)}
	if filepath.Base(manifest) != "package.json" {
		return info
	}

	data, err := os.ReadFile(filepath.Join(root, manifest))
	if err != nil {
		return info
	}

	var pkg struct {
		Name    string            `json:"name"`
		Version string            `json:"version"`
		Scripts map[string]string `json:"scripts"`
	}
	if err := jsoniter.Unmarshal(data, &pkg); err != nil {
		return info
	}

	if pkg.Name != "" {
		info.Name = pkg.Name
	}
	info.Version = pkg.Version
	for name := range pkg.Scripts {
		info.Scripts = append(info.Scripts, name)
	}
	return info
}

// Check verifies that root looks like the target project and that the
// launcher exists. It runs before the dashboard starts; either failure
// aborts startup.
func Check(root, manifest, launcherPath string) error {
	if _, err := os.Stat(filepath.Join(root, manifest)); err != nil {
		return errors.WrapWithCode(err, errors.ErrProject,
			"This does not look like the project directory ("+manifest+" not found)",
			"Run stackdash from the project root or pass --root")
	}
	if _, err := os.Stat(launcherPath); err != nil {
		return errors.WrapWithCode(err, errors.ErrMissingLauncher,
			"Launcher not found: "+launcherPath,
			"Create it, or set launcher in .stackdash.yaml")
	}
	return nil
}
