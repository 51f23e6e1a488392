package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeDataURI(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Ext)
	assert.NotEmpty(t, img.Data)
}

func TestDecodeDataURIRejects(t *testing.T) {
	for _, s := range []string{
		"data:image/png;base64",
		"data:image/png,abc",
		"data:image/tiff;base64,AAAA",
		"data:image/png;base64,!!!",
	} {
		_, err := DecodeDataURI(s)
		assert.ErrorIs(t, err, ErrInvalidImage, s)
	}
}

func TestIsDataURI(t *testing.T) {
	assert.True(t, IsDataURI("data:image/png;base64,AAAA"))
	assert.False(t, IsDataURI("https://cdn.test/a.png"))
}

func TestFitDownscales(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t, 400, 100))
	require.NoError(t, err)

	out, err := Fit(img, 200, 0)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestFitKeepsSmallImage(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t, 10, 10))
	require.NoError(t, err)

	out, err := Fit(img, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, img.Data, out.Data)
}

// headerOnlyPNG returns the signature and IHDR chunk of a PNG declaring w x h pixels.
func headerOnlyPNG(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestFitRejectsPixelBomb(t *testing.T) {
	img := &Image{Data: headerOnlyPNG(60000, 60000), ContentType: "image/png", Ext: ".png"}

	_, err := Fit(img, 1280, 40_000_000)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = Fit(img, 0, 40_000_000)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestFitPixelBudgetAllowsSmallImage(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t, 10, 10))
	require.NoError(t, err)

	out, err := Fit(img, 200, 100)
	require.NoError(t, err)
	assert.Equal(t, img.Data, out.Data)

	_, err = Fit(img, 200, 99)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestS3PublicURL(t *testing.T) {
	s := &S3Store{Bucket: "food", Region: "eu-west-1"}
	assert.Equal(t, "https://food.s3.eu-west-1.amazonaws.com/recipes/a/b.png", s.PublicURL("recipes/a/b.png"))
}
