package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentuity/cli/internal/diag"
)

// moduleExts are the source extensions the discoverer and the bundler agree
// on for agent/eval/route modules.
var moduleExts = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
}

// Discovery is the result of scanning a project tree for entrypoints.
// All paths are absolute.
type Discovery struct {
	AppRoot    string
	Modules    []string // every agent/eval/route module under src/agents and src/apis
	WebEntries []string // HTML entrypoints under src/web, empty when none
}

// Discover walks the project's fixed source layout. The agents subtree is
// mandatory; apis and web are optional. The application root is the first
// src/index.* match.
func Discover(rootDir string) (*Discovery, error) {
	srcDir := filepath.Join(rootDir, "src")
	agentsDir := filepath.Join(srcDir, "agents")

	if info, err := os.Stat(agentsDir); err != nil || !info.IsDir() {
		return nil, diag.Newf("discover", diag.CodeMissingAgentsDir,
			diag.Location{File: filepath.Join("src", "agents")},
			"project has no src/agents directory under %s", rootDir)
	}

	d := &Discovery{}

	appRoot, err := findAppRoot(srcDir)
	if err != nil {
		return nil, err
	}
	d.AppRoot = appRoot

	for _, dir := range []string{agentsDir, filepath.Join(srcDir, "apis")} {
		mods, err := scanModules(dir)
		if err != nil {
			return nil, err
		}
		d.Modules = append(d.Modules, mods...)
	}

	webDir := filepath.Join(srcDir, "web")
	if info, err := os.Stat(webDir); err == nil && info.IsDir() {
		err := filepath.WalkDir(webDir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && filepath.Ext(path) == ".html" {
				d.WebEntries = append(d.WebEntries, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(d.WebEntries)
	}

	return d, nil
}

// scanModules collects agent.*, eval.* and route.* files under dir. A
// missing dir is fine (apis is optional).
func scanModules(dir string) ([]string, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}
	var mods []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if !moduleExts[ext] {
			return nil
		}
		switch strings.TrimSuffix(filepath.Base(path), ext) {
		case "agent", "eval", "route":
			mods = append(mods, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(mods)
	return mods, nil
}

// findAppRoot locates src/index.* in extension preference order.
func findAppRoot(srcDir string) (string, error) {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} {
		candidate := filepath.Join(srcDir, "index"+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", diag.Newf("discover", diag.CodeMissingAppRoot,
		diag.Location{File: filepath.Join("src", "index.ts")},
		"project has no application root (expected src/index.ts or a sibling extension)")
}
