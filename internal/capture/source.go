package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// DecodeError reports a source photo that could not be decoded. The capture
// flow surfaces it as an error state rather than producing a blank scan.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode source image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ImageSource decodes raw capture bytes into a pixel buffer. It stands in
// for the browser's implicit image element so tests can inject fixtures.
type ImageSource interface {
	Decode(data []byte) (image.Image, error)
}

// StdImageSource decodes with the standard library codecs (JPEG, PNG, GIF).
type StdImageSource struct{}

func (StdImageSource) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}
