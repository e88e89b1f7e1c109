package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentuity/cli/internal/metadata"
)

// Manifest file names, written to the build output root.
const (
	MetadataFile     = "agentuity.metadata.json"
	RouteMappingFile = ".routemapping.json"
	PackageFile      = "package.json"
)

// writeManifests emits the three manifest files. The metadata manifest is
// pretty-printed for development builds and compact for production.
func writeManifests(outDir string, md *metadata.BuildMetadata, projectName, version string, dev bool) error {
	var data []byte
	var err error
	if dev {
		data, err = json.MarshalIndent(md, "", "  ")
	} else {
		data, err = json.Marshal(md)
	}
	if err != nil {
		return fmt.Errorf("marshaling build metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, MetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", MetadataFile, err)
	}

	mapping := make(map[string]string, len(md.Routes))
	for _, r := range md.Routes {
		mapping[r.Method+" "+r.Path] = r.ID
	}
	data, err = json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling route mapping: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, RouteMappingFile), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", RouteMappingFile, err)
	}

	pkg := struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}{Name: projectName, Version: version}
	data, err = json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling package descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, PackageFile), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", PackageFile, err)
	}
	return nil
}
