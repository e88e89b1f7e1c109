package build

import (
	"runtime"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/agentuity/cli/internal/metadata"
)

// Version vars, overridden at release time via -ldflags.
var (
	CLIVersion     = "dev"
	RuntimeVersion = "dev"
)

// provenance stamps the deployment record. Git lookups are best-effort:
// any failure degrades the corresponding field to absent rather than
// failing the build.
func provenance(rootDir, deploymentID string) metadata.Deployment {
	return metadata.Deployment{
		ID:         deploymentID,
		CLIVersion: CLIVersion,
		Runtime:    RuntimeVersion,
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
		Timestamp:  time.Now().UTC(),
		Git:        gitInfo(rootDir),
	}
}

// gitInfo resolves repository provenance by walking upward from the project
// root until a .git directory is found. Returns nil when the project is not
// inside a repository or anything along the way fails.
func gitInfo(rootDir string) *metadata.GitInfo {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}

	info := &metadata.GitInfo{
		Commit: head.Hash().String(),
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		info.Message = commit.Message
	}
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.RemoteURL = urls[0]
		}
	}
	if tags, err := repo.Tags(); err == nil {
		_ = tags.ForEach(func(ref *plumbing.Reference) error {
			if ref.Hash() == head.Hash() {
				info.Tags = append(info.Tags, ref.Name().Short())
			}
			return nil
		})
	}
	return info
}
