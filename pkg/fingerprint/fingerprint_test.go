package fingerprint

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadrants draws a 64x64 image whose bright quadrants are chosen by mask
func quadrants(mask [4]bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			q := (y/32)*2 + x/32
			c := color.RGBA{R: 20, G: 30, B: 25, A: 255}
			if mask[q] {
				c = color.RGBA{R: 230, G: 220, B: 210, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestComputeIsDeterministic(t *testing.T) {
	data := encodePNG(t, quadrants([4]bool{true, false, false, true}))

	first := Compute(data)
	assert.Len(t, first, 16)
	assert.Equal(t, first, Compute(data))
}

func TestDistinctImagesDiffer(t *testing.T) {
	left := Compute(encodePNG(t, quadrants([4]bool{true, false, true, false})))
	top := Compute(encodePNG(t, quadrants([4]bool{true, true, false, false})))
	assert.NotEqual(t, left, top)
}

func TestReencodedImageCollides(t *testing.T) {
	img := quadrants([4]bool{false, true, true, false})

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, img, &jpeg.Options{Quality: 95}))

	assert.Equal(t, Compute(encodePNG(t, img)), Compute(jpg.Bytes()))
}

func TestNormalizationIsIdempotent(t *testing.T) {
	img := quadrants([4]bool{true, false, false, false})

	direct, err := Image(img)
	require.NoError(t, err)

	once := ToRGB(img)
	normalized, err := Image(once)
	require.NoError(t, err)
	assert.Equal(t, direct, normalized)

	twice := ToRGB(once)
	assert.Equal(t, once.Pix, twice.Pix)
}

func TestToRGBDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 0})

	dst := ToRGB(src)
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, dst.RGBAAt(1, 0))
	assert.Equal(t, ModeRGB, ColorMode(dst))
}

func TestGrayAndRGBShareFingerprint(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 64, 64))
	rgb := image.NewRGBA(gray.Bounds())
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(0)
			if x >= 32 {
				v = 255
			}
			gray.SetGray(x, y, color.Gray{Y: v})
			rgb.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	a, err := Image(gray)
	require.NoError(t, err)
	b, err := Image(rgb)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestColorMode(t *testing.T) {
	r := image.Rect(0, 0, 1, 1)
	tests := []struct {
		img  image.Image
		mode Mode
	}{
		{image.NewRGBA(r), ModeRGB},
		{image.NewYCbCr(r, image.YCbCrSubsampleRatio420), ModeRGB},
		{image.NewNRGBA(r), ModeRGBA},
		{image.NewGray(r), ModeGray},
		{image.NewGray16(r), ModeGray16},
		{image.NewPaletted(r, color.Palette{color.Black}), ModePalette},
		{image.NewCMYK(r), ModeCMYK},
		{image.NewAlpha(r), ModeUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.mode, ColorMode(tt.img))
		})
	}
}

func TestColorModeOpaqueNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 40, G: 80, B: 120, A: 0xff})
		}
	}
	assert.Equal(t, ModeRGB, ColorMode(img))

	img.SetNRGBA(1, 1, color.NRGBA{R: 40, G: 80, B: 120, A: 0xfe})
	assert.Equal(t, ModeRGBA, ColorMode(img))
}

func TestDecodedPNGModes(t *testing.T) {
	opaque, _, err := Decode(encodePNG(t, quadrants([4]bool{})))
	require.NoError(t, err)
	assert.Equal(t, ModeRGB, ColorMode(opaque))

	translucent := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 9, A: 10})
	decoded, _, err := Decode(encodePNG(t, translucent))
	require.NoError(t, err)
	assert.Equal(t, ModeRGBA, ColorMode(decoded))
}

func TestComputeFallsBackToContentHash(t *testing.T) {
	garbage := []byte("definitely not an image")

	fp := Compute(garbage)
	assert.Len(t, fp, 64)
	assert.Equal(t, Content(garbage), fp)
	assert.NotEqual(t, fp, Compute([]byte("another blob")))
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "cow.png")
	bad := filepath.Join(dir, "broken.jpg")
	data := encodePNG(t, quadrants([4]bool{true, true, true, false}))
	require.NoError(t, os.WriteFile(good, data, 0644))
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))

	fp, err := File(good)
	require.NoError(t, err)
	assert.Equal(t, Compute(data), fp)

	_, err = File(bad)
	assert.Error(t, err)

	_, err = File(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
