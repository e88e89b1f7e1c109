// Package dedup repairs bundler output: the external bundler's code
// splitting can emit duplicate top-level re-export statements and a
// placeholder token for references it could not resolve across chunks. This
// pass is purely textual, idempotent, and only acts on statements it can
// unambiguously parse.
package dedup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/agentuity/cli/internal/source"
)

// InvalidRefToken is the placeholder the bundler substitutes for a symbol it
// lost track of during chunk splitting.
const InvalidRefToken = "__INVALID_REFERENCE__"

// exportEntry is one `name` or `name as alias` item inside an export list.
// text preserves the original spelling so rewrites keep alias syntax intact.
type exportEntry struct {
	text   string
	public string // the externally visible name
}

// exportStmt is one top-level `export { ... };` statement, byte-addressed.
type exportStmt struct {
	start, end int
	entries    []exportEntry
}

// Process rewrites one file's text: placeholder tokens are stripped first,
// then duplicate exported names are removed, whole statements when every
// name is a duplicate (the statement's line is left blank) and individual
// names otherwise. Returns the result and whether it differs from the input.
func Process(text string) (string, bool) {
	out := stripInvalidRefs(text)

	stmts := scanExports(out)
	seen := map[string]bool{}
	var edits []source.Edit
	for _, stmt := range stmts {
		var kept []exportEntry
		for _, e := range stmt.entries {
			if !seen[e.public] {
				kept = append(kept, e)
			}
			seen[e.public] = true
		}
		switch {
		case len(kept) == len(stmt.entries):
			// Nothing already seen.
		case len(kept) == 0:
			edits = append(edits, source.Edit{Start: stmt.start, End: stmt.end})
		default:
			parts := make([]string, 0, len(kept))
			for _, e := range kept {
				parts = append(parts, e.text)
			}
			edits = append(edits, source.Edit{
				Start: stmt.start,
				End:   stmt.end,
				Text:  "export { " + strings.Join(parts, ", ") + " };",
			})
		}
	}
	if len(edits) > 0 {
		out = source.ApplyEdits(out, edits)
	}
	return out, out != text
}

// stripInvalidRefs deletes the placeholder token from name lists, comma
// forms first so surrounding separators go with it.
func stripInvalidRefs(text string) string {
	text = strings.ReplaceAll(text, ", "+InvalidRefToken, "")
	text = strings.ReplaceAll(text, ","+InvalidRefToken, "")
	text = strings.ReplaceAll(text, InvalidRefToken+", ", "")
	text = strings.ReplaceAll(text, InvalidRefToken+",", "")
	return strings.ReplaceAll(text, InvalidRefToken, "")
}

// scanExports finds every top-level `export { a [as b], ... }[;]` statement.
// It tracks brace/paren/bracket depth, string and template literals, and
// comments, so exports inside function bodies or strings are never touched.
// Statements with a `from` clause or any shape it cannot parse are skipped.
func scanExports(text string) []exportStmt {
	var stmts []exportStmt
	depth := 0
	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '\'', '"', '`':
			i = skipString(text, i)
			continue
		case '/':
			if i+1 < len(text) {
				if text[i+1] == '/' {
					for i < len(text) && text[i] != '\n' {
						i++
					}
					continue
				}
				if text[i+1] == '*' {
					end := strings.Index(text[i+2:], "*/")
					if end < 0 {
						return stmts
					}
					i += 2 + end + 2
					continue
				}
			}
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}

		if depth == 0 && c == 'e' && isWordBoundary(text, i) && strings.HasPrefix(text[i:], "export") {
			if stmt, next, ok := parseExport(text, i); ok {
				stmts = append(stmts, stmt)
				i = next
				continue
			}
		}
		i++
	}
	return stmts
}

// parseExport parses one statement starting at the `export` keyword. ok is
// false when the statement is not the plain braced-list form.
func parseExport(text string, start int) (exportStmt, int, bool) {
	i := start + len("export")
	i = skipSpace(text, i)
	if i >= len(text) || text[i] != '{' {
		return exportStmt{}, 0, false
	}
	open := i
	close := strings.IndexByte(text[open:], '}')
	if close < 0 {
		return exportStmt{}, 0, false
	}
	close += open

	inner := text[open+1 : close]
	if strings.ContainsAny(inner, "{}()\"'`") {
		return exportStmt{}, 0, false
	}

	i = skipSpace(text, close+1)
	// A from clause makes this a different statement kind; leave it alone.
	if strings.HasPrefix(text[i:], "from") {
		return exportStmt{}, 0, false
	}
	end := close + 1
	if i < len(text) && text[i] == ';' {
		end = i + 1
	}

	var entries []exportEntry
	for _, raw := range strings.Split(inner, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		fields := strings.Fields(item)
		switch {
		case len(fields) == 1:
			entries = append(entries, exportEntry{text: item, public: fields[0]})
		case len(fields) == 3 && fields[1] == "as":
			entries = append(entries, exportEntry{text: item, public: fields[2]})
		default:
			return exportStmt{}, 0, false
		}
	}
	if len(entries) == 0 {
		return exportStmt{}, 0, false
	}
	return exportStmt{start: start, end: end, entries: entries}, end, true
}

// skipString advances past the string or template literal opening at i.
// Template literals skip ${...} interpolations by brace counting.
func skipString(text string, i int) int {
	quote := text[i]
	i++
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '$':
			if quote == '`' && i+1 < len(text) && text[i+1] == '{' {
				nest := 1
				i += 2
				for i < len(text) && nest > 0 {
					switch text[i] {
					case '{':
						nest++
					case '}':
						nest--
					}
					i++
				}
				continue
			}
		case '\n':
			if quote != '`' {
				return i
			}
		}
		i++
	}
	return i
}

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\r' || text[i] == '\n') {
		i++
	}
	return i
}

func isWordBoundary(text string, i int) bool {
	if i == 0 {
		return true
	}
	p := text[i-1]
	return !(p == '_' || p == '$' ||
		(p >= 'a' && p <= 'z') || (p >= 'A' && p <= 'Z') || (p >= '0' && p <= '9'))
}

// ProcessFile runs the pass over one file, rewriting it only when the text
// changed.
func ProcessFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	out, changed := Process(string(data))
	if !changed {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

var scriptExts = map[string]bool{".js": true, ".mjs": true, ".cjs": true}

// ProcessDir runs the pass over every emitted script in the output tree.
// Files are independent, so they process in parallel; edits within one file
// stay serial inside ProcessFile.
func ProcessDir(dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && scriptExts[filepath.Ext(path)] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for _, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := ProcessFile(path); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(path)
	}
	wg.Wait()

	return errors.Join(errs...)
}
