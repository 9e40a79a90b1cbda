//go:build tools

// Tool dependencies: go:generate (stringer) and the golint linter.
// The blank imports keep them pinned in go.mod.
package tools

import (
	_ "golang.org/x/lint/golint"
	_ "golang.org/x/tools/cmd/stringer"
)
