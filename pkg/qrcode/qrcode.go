package qrcode

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of generated images
const DefaultSize = 256

// Config controls how a code is rendered
type Config struct {
	Size          int
	RecoveryLevel qrcode.RecoveryLevel
}

// DefaultConfig returns a medium recovery, DefaultSize config
func DefaultConfig() Config {
	return Config{Size: DefaultSize, RecoveryLevel: qrcode.Medium}
}

// PNG encodes content as a QR code image
func (c Config) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qrcode: empty content")
	}
	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, c.RecoveryLevel, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return png, nil
}
