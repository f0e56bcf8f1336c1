// Package directive handles poolalloc comment directives.
//
// # Supported Directives
//
//	//poolalloc:ignore - Suppress allocation reports for the next line or same line
//	//poolalloc:opaque - Treat a function as code the analysis cannot see into
//
// # Directive Placement
//
// Ignore directives can be placed:
//   - On the line before the allocation (most common)
//   - On the same line as the allocation
//   - On a function declaration (function-level ignore)
//   - Before the package declaration (file-level ignore)
//
// Opaque directives only apply to function declarations.
//
// # Examples
//
// Line-level ignore:
//
//	//poolalloc:ignore
//	buf := make([]byte, n)  // not reported
//
// Opaque function:
//
//	//poolalloc:opaque
//	func register(b *Buffer) {
//	    registry = append(registry, b) // b outlives every caller
//	}
package directive

import "strings"

const directivePrefix = "poolalloc:"

// hasDirective checks if a comment contains the specified directive.
// Supports both "//poolalloc:name" and "// poolalloc:name".
func hasDirective(text, name string) bool {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimSpace(text)
	rest, ok := strings.CutPrefix(text, directivePrefix+name)
	if !ok {
		return false
	}
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// IsIgnoreDirective checks if a comment is an ignore directive.
func IsIgnoreDirective(text string) bool { return hasDirective(text, "ignore") }

// IsOpaqueDirective checks if a comment is an opaque directive.
func IsOpaqueDirective(text string) bool { return hasDirective(text, "opaque") }
