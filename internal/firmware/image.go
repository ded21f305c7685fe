package firmware

import (
	"bytes"
	"io"
	"os"
)

// SystemImage is where packages install the firmware image.
const SystemImage = "/usr/share/fanmgr/pwm_fan.uf2"

// embeddedImage is filled in by image_embed.go in builds tagged
// embedfirmware, which compile pwm_fan.uf2 from this directory into the
// binary.
var embeddedImage []byte

// EmbeddedImage returns the image compiled into the binary, if any.
func EmbeddedImage() ([]byte, bool) {
	return embeddedImage, len(embeddedImage) > 0
}

// openImage picks the explicit path, then the embedded image, then the
// fallback path. It returns a description of the chosen source.
func (i *Installer) openImage() (io.ReadCloser, string, error) {
	if i.cfg.Image != "" {
		f, err := os.Open(i.cfg.Image)
		return f, i.cfg.Image, err
	}

	if len(i.embedded) > 0 {
		return io.NopCloser(bytes.NewReader(i.embedded)), "embedded", nil
	}

	f, err := os.Open(i.cfg.FallbackImage)
	return f, i.cfg.FallbackImage, err
}
