// Package builtin registers every backend shipped with glyphraster.
//
// Import it for its side effects:
//
//	import _ "github.com/gogpu/glyphraster/backend/builtin"
package builtin

import (
	// Register the outline backend.
	_ "github.com/gogpu/glyphraster/backend/outline"

	// Register the scaler backend.
	_ "github.com/gogpu/glyphraster/backend/scaler"
)
