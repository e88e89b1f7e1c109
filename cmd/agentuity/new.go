package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	utilstrings "github.com/agentuity/cli/internal/util/strings"
)

var newCmd = &cobra.Command{
	Use:   "new [project-name]",
	Short: "Create a new agent project",
	Long:  "Scaffold an agent project with a starter agent, eval and route module",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var answers struct {
			Name  string
			Agent string
			Web   bool
		}

		var qs []*survey.Question
		if len(args) == 1 {
			answers.Name = args[0]
		} else {
			qs = append(qs, &survey.Question{
				Name:     "name",
				Prompt:   &survey.Input{Message: "Project name:"},
				Validate: survey.Required,
			})
		}
		qs = append(qs,
			&survey.Question{
				Name:   "agent",
				Prompt: &survey.Input{Message: "First agent name:", Default: "assistant"},
			},
			&survey.Question{
				Name:   "web",
				Prompt: &survey.Confirm{Message: "Include a web frontend?", Default: false},
			},
		)
		if err := survey.Ask(qs, &answers); err != nil {
			return err
		}

		if err := validateProjectName(answers.Name); err != nil {
			return err
		}
		agentName := utilstrings.ToKebabCase(answers.Agent)
		if agentName == "" {
			agentName = "assistant"
		}

		projectPath := filepath.Join(".", answers.Name)
		if _, err := os.Stat(projectPath); err == nil {
			return fmt.Errorf("directory %s already exists", answers.Name)
		}

		agentDir := filepath.Join(projectPath, "src", "agents", agentName)
		if err := os.MkdirAll(agentDir, 0o755); err != nil {
			return fmt.Errorf("failed to create project directories: %w", err)
		}

		files := map[string]string{
			filepath.Join(projectPath, "agentuity.yaml"): fmt.Sprintf("name: %s\nversion: 0.0.1\ndev:\n  port: 3500\n", answers.Name),
			filepath.Join(projectPath, ".gitignore"):     ".agentuity/\nnode_modules/\n*.generated.*\n",
			filepath.Join(projectPath, "src", "index.ts"): "import { createApp } from \"@agentuity/runtime\";\n\nexport default createApp({});\n",
			filepath.Join(agentDir, "agent.ts"): `import { createAgent } from "@agentuity/runtime";

export default createAgent({
	run: async (input) => {
		return { message: "hello from ` + agentName + `" };
	},
});
`,
			filepath.Join(agentDir, "eval.ts"): `import { createEval } from "@agentuity/runtime";

const responds = createEval({
	metadata: { description: "Checks the agent produces a message" },
	run: async ({ output }) => ({ pass: Boolean(output?.message) }),
});
`,
			filepath.Join(agentDir, "route.ts"): `import { createRouter } from "@agentuity/runtime";

const router = createRouter();
router.get("/status");
export default router;
`,
		}
		if answers.Web {
			webDir := filepath.Join(projectPath, "src", "web")
			if err := os.MkdirAll(webDir, 0o755); err != nil {
				return fmt.Errorf("failed to create web directory: %w", err)
			}
			files[filepath.Join(webDir, "index.html")] = "<!doctype html>\n<html>\n<body>\n\t<h1>" + answers.Name + "</h1>\n</body>\n</html>\n"
		}

		for path, content := range files {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}

		color.Green("Created project %s", answers.Name)
		fmt.Printf("\n  cd %s\n  agentuity dev\n\n", answers.Name)
		return nil
	},
}

func validateProjectName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("project name cannot be empty")
	case strings.Contains(name, ".."):
		return fmt.Errorf("project name cannot contain '..'")
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("project name cannot contain path separators")
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("project name cannot start with '.'")
	}
	return nil
}
