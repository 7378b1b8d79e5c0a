package fingerprint

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF decode support
	_ "image/jpeg" // JPEG decode support
	_ "image/png"  // PNG decode support
	"os"

	"github.com/corona10/goimagehash"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
)

// Mode names an image's color representation
type Mode string

const (
	ModeRGB     Mode = "RGB"
	ModeRGBA    Mode = "RGBA"
	ModeGray    Mode = "L"
	ModeGray16  Mode = "I;16"
	ModePalette Mode = "P"
	ModeCMYK    Mode = "CMYK"
	ModeUnknown Mode = "unknown"
)

// Compute returns the deduplication key for raw image bytes: the 64-bit
// average hash as 16 hex digits, or the BLAKE2b-256 content hash when the
// bytes cannot be decoded or hashed. It never fails.
func Compute(data []byte) string {
	img, _, err := Decode(data)
	if err != nil {
		return Content(data)
	}
	fp, err := Image(img)
	if err != nil {
		return Content(data)
	}
	return fp
}

// Image normalizes img to RGB and returns its average hash
func Image(img image.Image) (string, error) {
	if img.Bounds().Empty() {
		return "", fmt.Errorf("empty image")
	}
	h, err := goimagehash.AverageHash(ToRGB(img))
	if err != nil {
		return "", fmt.Errorf("average hash: %w", err)
	}
	return fmt.Sprintf("%016x", h.GetHash()), nil
}

// File decodes the image at path and returns its average hash. Unlike
// Compute it reports undecodable files instead of falling back.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	img, _, err := Decode(data)
	if err != nil {
		return "", err
	}
	return Image(img)
}

// Content returns the hex BLAKE2b-256 digest of data
func Content(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Decode decodes JPEG, PNG, GIF or WebP bytes
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// ColorMode reports the color representation of a decoded image. An
// opaque NRGBA counts as RGB since the lossless WebP decoder always
// returns NRGBA.
func ColorMode(img image.Image) Mode {
	switch m := img.(type) {
	case *image.YCbCr, *image.RGBA, *image.RGBA64:
		return ModeRGB
	case *image.NRGBA:
		if m.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	case *image.NRGBA64, *image.NYCbCrA:
		return ModeRGBA
	case *image.Gray:
		return ModeGray
	case *image.Gray16:
		return ModeGray16
	case *image.Paletted:
		return ModePalette
	case *image.CMYK:
		return ModeCMYK
	default:
		return ModeUnknown
	}
}

// ToRGB returns an opaque 8-bit RGB copy of img. Alpha is dropped, not
// composited, so a translucent pixel keeps its color channels.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)

	switch src := img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		draw.Draw(dst, b, src, b.Min, draw.Src)
		return dst
	case *image.RGBA:
		if src.Opaque() {
			draw.Draw(dst, b, src, b.Min, draw.Src)
			return dst
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
