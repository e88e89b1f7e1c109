package metadata

import (
	"strings"

	"github.com/agentuity/cli/internal/diag"
	"github.com/agentuity/cli/internal/hash"
	"github.com/agentuity/cli/internal/source"
)

// httpVerbs are the plain HTTP registration methods on a router.
var httpVerbs = map[string]bool{
	"get": true, "put": true, "post": true, "patch": true, "delete": true,
}

// streamKinds take a literal path suffix like the HTTP verbs do.
var streamKinds = map[string]bool{
	"stream": true, "sse": true, "websocket": true,
}

// triggerKinds derive their path suffix from a content hash of their binding
// value: the phone number for sms, the address for email, the expression for
// cron.
var triggerKinds = map[string]string{
	"sms":   "number",
	"email": "address",
	"cron":  "expression",
}

// RouteResult is the outcome of processing one route module. Route modules
// are never rewritten; Source echoes the input.
type RouteResult struct {
	Routes []RouteDefinition
	Source string
}

// ExtractRoutes verifies that the module default-exports a createRouter(...)
// product and collects every `<router>.<method>(...)` registration into
// RouteDefinitions with normalized, kind-prefixed paths and deterministic
// content-addressed IDs.
func ExtractRoutes(in Input) (*RouteResult, error) {
	rel := in.relFilename()
	mod := source.Parse(in.Source)
	version := hash.Content(in.Source)

	routerVar, ok := findRouterVar(mod)
	if !ok {
		return nil, diag.Newf("extract", diag.CodeMissingRouter,
			diag.Location{File: rel},
			"no default-exported %s(...) declaration found in %s", routerConstructor, rel)
	}

	prefix := "/api"
	routeName := containingDir(rel)
	if segs := agentsSubpath(rel); segs != nil {
		prefix = "/agent"
		if len(segs) == 2 {
			// Subagent routes are named by their two-segment path.
			routeName = segs[0] + "/" + segs[1]
		}
	}

	result := &RouteResult{Source: in.Source}
	for _, stmt := range mod.Statements {
		es, ok := stmt.(*source.ExprStmt)
		if !ok {
			continue
		}
		call := source.AsCall(es.Expr)
		if call == nil {
			continue
		}
		member, ok := call.Callee.(*source.MemberExpr)
		if !ok {
			continue
		}
		obj, ok := member.Object.(*source.Ident)
		if !ok || obj.Name != routerVar {
			continue
		}

		def, ok := routeFor(member.Property, call)
		if !ok {
			continue
		}
		def.Filename = rel
		def.Version = version
		def.Path = NormalizePath(prefix + "/" + routeName + "/" + def.Path)
		def.ID = hash.ID(in.ProjectID, in.DeploymentID, def.Type, def.Method, rel, def.Path, version)
		result.Routes = append(result.Routes, def)
	}
	return result, nil
}

// routeFor maps one registration call to a partial RouteDefinition whose
// Path holds only the derived suffix. Calls that do not match a recognized
// registration shape are skipped, not guessed at.
func routeFor(method string, call *source.CallExpr) (RouteDefinition, bool) {
	switch {
	case httpVerbs[method]:
		suffix, ok := firstStringArg(call)
		if !ok {
			return RouteDefinition{}, false
		}
		return RouteDefinition{Method: strings.ToUpper(method), Type: "http", Path: suffix}, true

	case streamKinds[method]:
		suffix, ok := firstStringArg(call)
		if !ok {
			return RouteDefinition{}, false
		}
		return RouteDefinition{Method: strings.ToUpper(method), Type: method, Path: suffix}, true

	case method == "sms":
		number := stringProp(firstObjectArg(call), "number")
		if number == "" {
			return RouteDefinition{}, false
		}
		return RouteDefinition{
			Method: "SMS",
			Type:   "sms",
			Path:   hash.ID(number),
			Config: map[string]string{"number": number},
		}, true

	case method == "email" || method == "cron":
		value, ok := firstStringArg(call)
		if !ok {
			return RouteDefinition{}, false
		}
		return RouteDefinition{
			Method: strings.ToUpper(method),
			Type:   method,
			Path:   hash.ID(value),
			Config: map[string]string{triggerKinds[method]: value},
		}, true
	}
	return RouteDefinition{}, false
}

// findRouterVar resolves the default export to the router variable: either
// `export default r` where r was initialized by createRouter(...), or the
// direct `export default createRouter(...)` form (which can carry no
// registrations and reports an empty variable name).
func findRouterVar(mod *source.Module) (string, bool) {
	if call := findDefaultConstructorCall(mod, routerConstructor); call == nil {
		return "", false
	}
	for _, stmt := range mod.Statements {
		def, ok := stmt.(*source.ExportDefaultStmt)
		if !ok {
			continue
		}
		if id, ok := def.Expr.(*source.Ident); ok {
			return id.Name, true
		}
	}
	// export { x as default }
	decls := map[string]bool{}
	for _, stmt := range mod.Statements {
		if d, ok := stmt.(*source.VarDeclStmt); ok {
			if c := source.AsCall(d.Init); c != nil && source.CalleeName(c.Callee) == routerConstructor {
				decls[d.Name] = true
			}
		}
	}
	for _, stmt := range mod.Statements {
		if s, ok := stmt.(*source.ExportNamedStmt); ok {
			for _, n := range s.Names {
				if n.Exported == "default" && decls[n.Local] {
					return n.Local, true
				}
			}
		}
	}
	return "", true // direct export default createRouter(...)
}

func firstStringArg(call *source.CallExpr) (string, bool) {
	if len(call.Args) == 0 {
		return "", false
	}
	return source.StringValue(call.Args[0])
}

// NormalizePath collapses repeated slashes and strips the trailing slash.
func NormalizePath(p string) string {
	var b strings.Builder
	prevSlash := false
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(p[i])
	}
	out := b.String()
	if len(out) > 1 && strings.HasSuffix(out, "/") {
		out = out[:len(out)-1]
	}
	if out == "" {
		out = "/"
	}
	return out
}
