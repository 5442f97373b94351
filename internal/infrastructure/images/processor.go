package images

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// avatarSize is the fixed square dimension avatars are stored at.
const avatarSize = 250

// Processor normalizes uploaded avatars: decode jpg/jpeg/png, center-crop to
// a 250x250 square, encode as PNG.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
