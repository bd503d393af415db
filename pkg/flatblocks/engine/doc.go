// Package engine is the minimal host template layer that flatblocks plugs
// into.
//
// A page template is plain text containing directives of the form
// {% tag arg arg ... %}. Compile scans the text once, splits every directive
// into tokens with SplitContents and hands them to the TagFunc registered
// under the directive's first token. The resulting nodes are immutable and
// are rendered against a Context on every call to Template.Render.
//
// There are no loops, conditionals or filters here; page logic belongs in
// html/template. Variable references are resolved with Context.Resolve,
// which walks dotted names through maps and struct fields.
package engine
