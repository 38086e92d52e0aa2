package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeDataURI(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestDecodeDataURIDownscales(t *testing.T) {
	img, err := DecodeDataURI(pngDataURI(t, 4000, 100))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, maxImageSide, cfg.Width)
}

// oversizedPNG returns a tiny PNG whose header claims w x h pixels.
func oversizedPNG(t *testing.T, w, h uint32) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()
	// IHDR data starts after the 8 byte signature, length and chunk type.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func TestDecodeDataURILimits(t *testing.T) {
	_, err := DecodeDataURI(oversizedPNG(t, 100_000, 100_000))
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "100000x100000")

	huge := "data:image/png;base64," + strings.Repeat("A", MaxImageBytes/3*4+8)
	_, err = DecodeDataURI(huge)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "larger than")
}

func TestDecodeDataURIRejects(t *testing.T) {
	cases := map[string]string{
		"not a data uri": "hello",
		"bad base64":     "data:image/png;base64,!!!",
		"not an image":   "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("text")),
		"unsupported":    "data:image/svg;base64,PHN2Zy8+",
		"not base64":     "data:image/png,abc",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURI(uri)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/media")
	ctx := context.Background()

	key, err := SaveImage(ctx, store, pngDataURI(t, 2, 2))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "/media/"+key, store.URL(key))

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, store.URL(key), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key)) // already gone
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreStaysInRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/media/")

	require.NoError(t, store.Save(context.Background(), "../../escape.txt", []byte("x"), "text/plain"))
	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}
