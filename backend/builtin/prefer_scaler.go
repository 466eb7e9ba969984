//go:build glyphraster_scaler

package builtin

import "github.com/gogpu/glyphraster"

func init() {
	glyphraster.PreferBackend(glyphraster.BackendScaler)
}
