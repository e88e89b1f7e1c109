package metadata

import (
	"strconv"
	"strings"

	"github.com/agentuity/cli/internal/source"
)

// field is one metadata key/value pair queued for injection. Order matters:
// fields are emitted in the order given.
type field struct {
	key   string
	value string
}

// appendFields builds an edit that adds the given fields to an object
// literal, after its last property (or inside the braces when empty).
func appendFields(obj *source.ObjectLit, fields []field) source.Edit {
	if len(fields) == 0 {
		return source.Edit{Start: -1, End: -1}
	}
	entries := make([]string, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, f.key+": "+strconv.Quote(f.value))
	}
	joined := strings.Join(entries, ", ")

	if len(obj.Props) == 0 {
		return source.Edit{Start: obj.LBrace + 1, End: obj.LBrace + 1, Text: " " + joined + " "}
	}
	last := obj.Props[len(obj.Props)-1]
	return source.Edit{Start: last.Span().End, End: last.Span().End, Text: ", " + joined}
}

// stringProp reads a string-literal property value, or "".
func stringProp(obj *source.ObjectLit, key string) string {
	if obj == nil {
		return ""
	}
	p := obj.Prop(key)
	if p == nil || p.Value == nil {
		return ""
	}
	v, _ := source.StringValue(p.Value)
	return v
}

// objectProp reads a property whose value is an object literal, or nil.
func objectProp(obj *source.ObjectLit, key string) *source.ObjectLit {
	if obj == nil {
		return nil
	}
	p := obj.Prop(key)
	if p == nil {
		return nil
	}
	o, _ := p.Value.(*source.ObjectLit)
	return o
}

// firstObjectArg returns the call's first argument when it is an object
// literal.
func firstObjectArg(call *source.CallExpr) *source.ObjectLit {
	if call == nil || len(call.Args) == 0 {
		return nil
	}
	o, _ := call.Args[0].(*source.ObjectLit)
	return o
}

// validEdit filters out the sentinel produced by appendFields on empty input.
func validEdit(e source.Edit) bool {
	return e.Start >= 0
}
