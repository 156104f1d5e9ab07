package lunatech

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Malmeu/LunatechWeb-main/storage"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
)

// Upload is an image file submitted by the editor.
type Upload struct {
	Filename string
	Body     io.Reader
	Size     int64 // declared size; 0 when unknown
}

// imageFormats maps accepted extensions to the decoder name image.DecodeConfig reports.
var imageFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
}

var imageContentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// processImage checks size and type, downsizes wide jpeg/png images and
// assigns a random key that keeps the original extension.
func processImage(up Upload) (storage.Object, error) {
	if up.Size > maxUploadSize {
		return storage.Object{}, fmt.Errorf("upload image: %w: file too large (max 10MB)", ErrUpload)
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	format, ok := imageFormats[ext]
	if !ok {
		return storage.Object{}, fmt.Errorf("upload image: %w: unsupported file type %q", ErrUpload, ext)
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, maxUploadSize+1))
	if err != nil {
		return storage.Object{}, fmt.Errorf("upload image: %w: read file: %v", ErrUpload, err)
	}
	if len(data) > maxUploadSize {
		return storage.Object{}, fmt.Errorf("upload image: %w: file too large (max 10MB)", ErrUpload)
	}

	cfg, detected, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return storage.Object{}, fmt.Errorf("upload image: %w: not a valid image", ErrUpload)
	}
	if detected != format {
		return storage.Object{}, fmt.Errorf("upload image: %w: content is %s but extension is %s", ErrUpload, detected, ext)
	}

	if cfg.Width > maxImageWidth && (format == "jpeg" || format == "png") {
		data, err = downsize(data, format)
		if err != nil {
			return storage.Object{}, fmt.Errorf("upload image: %w: %v", ErrUpload, err)
		}
	}

	return storage.Object{
		Key:         uuid.NewString() + ext,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: imageContentTypes[format],
	}, nil
}

// downsize scales a jpeg or png image to maxImageWidth and re-encodes it in
// its own format.
func downsize(data []byte, format string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := h * maxImageWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
