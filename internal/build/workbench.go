package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentuity/cli/internal/source"
)

// WorkbenchConfig is the embedded workbench declaration detected in the
// application root module.
type WorkbenchConfig struct {
	Route   string
	Port    int
	Headers map[string]string
}

// detectWorkbench loose-parses the application root looking for a
// `workbench: { ... }` object, either as a top-level variable or as a
// property of a top-level call's options object. Returns nil when the
// project declares no workbench.
func detectWorkbench(appRootSource string) *WorkbenchConfig {
	mod := source.Parse(appRootSource)
	for _, stmt := range mod.Statements {
		var obj *source.ObjectLit
		switch s := stmt.(type) {
		case *source.VarDeclStmt:
			if s.Name == "workbench" {
				obj, _ = s.Init.(*source.ObjectLit)
			} else {
				obj = workbenchProp(source.AsCall(s.Init))
			}
		case *source.ExprStmt:
			obj = workbenchProp(source.AsCall(s.Expr))
		case *source.ExportDefaultStmt:
			obj = workbenchProp(source.AsCall(s.Expr))
		}
		if obj == nil {
			continue
		}
		cfg := &WorkbenchConfig{Route: "/workbench"}
		if route := stringPropValue(obj, "route"); route != "" {
			cfg.Route = route
		}
		if p := obj.Prop("port"); p != nil {
			if n, ok := p.Value.(*source.NumberLit); ok {
				fmt.Sscanf(n.Raw, "%d", &cfg.Port)
			}
		}
		if headers, ok := objectPropValue(obj, "headers"); ok {
			cfg.Headers = map[string]string{}
			for _, p := range headers.Props {
				if v, ok := source.StringValue(p.Value); ok {
					cfg.Headers[p.Key] = v
				}
			}
		}
		return cfg
	}
	return nil
}

func workbenchProp(call *source.CallExpr) *source.ObjectLit {
	if call == nil || len(call.Args) == 0 {
		return nil
	}
	opts, ok := call.Args[0].(*source.ObjectLit)
	if !ok {
		return nil
	}
	obj, _ := objectPropValue(opts, "workbench")
	return obj
}

func stringPropValue(obj *source.ObjectLit, key string) string {
	p := obj.Prop(key)
	if p == nil {
		return ""
	}
	v, _ := source.StringValue(p.Value)
	return v
}

func objectPropValue(obj *source.ObjectLit, key string) (*source.ObjectLit, bool) {
	p := obj.Prop(key)
	if p == nil {
		return nil, false
	}
	o, ok := p.Value.(*source.ObjectLit)
	return o, ok
}

// synthesizeWorkbench writes the two generated workbench sources into a
// staging directory and returns the HTML entrypoint path. The entry script
// mounts the embedded workbench UI parameterized by the detected config.
func synthesizeWorkbench(stagingDir string, cfg *WorkbenchConfig) (string, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("creating workbench staging dir: %w", err)
	}

	params, err := json.Marshal(struct {
		Route   string            `json:"route"`
		Port    int               `json:"port,omitempty"`
		Headers map[string]string `json:"headers,omitempty"`
	}{Route: cfg.Route, Port: cfg.Port, Headers: cfg.Headers})
	if err != nil {
		return "", fmt.Errorf("marshaling workbench config: %w", err)
	}

	entry := fmt.Sprintf(`import { mountWorkbench } from "@agentuity/workbench";

mountWorkbench(document.getElementById("workbench"), %s);
`, params)
	if err := os.WriteFile(filepath.Join(stagingDir, "workbench.entry.ts"), []byte(entry), 0o644); err != nil {
		return "", fmt.Errorf("writing workbench entry: %w", err)
	}

	html := `<!doctype html>
<html>
<head>
	<meta charset="utf-8" />
	<title>Agentuity Workbench</title>
</head>
<body>
	<div id="workbench"></div>
	<script type="module" src="./workbench.entry.ts"></script>
</body>
</html>
`
	htmlPath := filepath.Join(stagingDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing workbench shell: %w", err)
	}
	return htmlPath, nil
}
