package media

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeDataURL(t *testing.T, url string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestNormalizeImageScalesWideImages(t *testing.T) {
	out, err := NormalizeImage("data:image/png;base64," + encodePNG(t, 2160, 1080))
	require.NoError(t, err)

	img := decodeDataURL(t, out)
	assert.Equal(t, MaxImageWidth, img.Bounds().Dx())
	assert.Equal(t, 540, img.Bounds().Dy())
}

func TestNormalizeImageKeepsSmallImages(t *testing.T) {
	out, err := NormalizeImage(encodePNG(t, 320, 200))
	require.NoError(t, err)

	img := decodeDataURL(t, out)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestNormalizeImageRejectsBadInput(t *testing.T) {
	_, err := NormalizeImage("data:image/png,plain")
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = NormalizeImage("@@@")
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = NormalizeImage(base64.StdEncoding.EncodeToString([]byte("hello, not an image")))
	assert.ErrorIs(t, err, ErrInvalidImage)

	tooBig := base64.StdEncoding.EncodeToString(make([]byte, MaxImageBytes+1024))
	_, err = NormalizeImage(tooBig)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

// pngHeader returns a PNG that is valid up to its IHDR chunk and claims the
// given dimensions.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; colour type 0 is grayscale

	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalizeImageRejectsHugeDimensions(t *testing.T) {
	raw := pngHeader(12000, 12000)
	require.Less(t, len(raw), 100)

	_, err := NormalizeImage(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrImageTooManyPx)
}

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, checkDimensions(pngHeader(8000, 5000)))
	assert.ErrorIs(t, checkDimensions(pngHeader(8000, 5001)), ErrImageTooManyPx)
	assert.ErrorIs(t, checkDimensions([]byte("GIF89a")), ErrInvalidImage)
}
