package doctor

import (
	"os"
	"path/filepath"
)

// lockfiles maps lock files to the package manager that writes them, in
// detection order.
var lockfiles = []struct {
	file    string
	manager string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"pnpm-workspace.yaml", "pnpm"},
	{"bun.lockb", "bun"},
	{"bun.lock", "bun"},
	{"yarn.lock", "yarn"},
	{"package-lock.json", "npm"},
}

// packageManager returns the package manager the project's lock file
// belongs to, and the lock file found. npm is assumed without one.
func packageManager(root string) (manager, lockfile string) {
	for _, l := range lockfiles {
		if _, err := os.Stat(filepath.Join(root, l.file)); err == nil {
			return l.manager, l.file
		}
	}
	return "npm", ""
}
