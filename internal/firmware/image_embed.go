//go:build embedfirmware

package firmware

import _ "embed"

//go:embed pwm_fan.uf2
var image []byte

func init() {
	embeddedImage = image
}
