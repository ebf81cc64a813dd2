//go:build tinygo || !cgo

package glgridaux

import (
	"errors"

	"github.com/soypat/glgrid"
)

func ui(tex *glgrid.ImageTexture, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
