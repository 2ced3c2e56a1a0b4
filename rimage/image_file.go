package rimage

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"golang.org/x/image/bmp"
)

// ReadImageFromFile decodes a PNG, JPEG or BMP file.
func ReadImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		img, err = bmp.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", path)
	}
	return img, nil
}

// ReadDepthMapFromFile reads a 16-bit grayscale PNG of millimeter depths.
func ReadDepthMapFromFile(path string) (*DepthMap, error) {
	img, err := ReadImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return ConvertImageToDepthMap(img)
}

// WriteImageToFile writes an image, choosing the encoding from the file extension.
func WriteImageToFile(path string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if dm, ok := img.(*DepthMap); ok {
		img = dm.ToGray16Picture()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode(f, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, nil)
	case ".bmp":
		return bmp.Encode(f, img)
	default:
		return errors.Errorf("rimage.WriteImageToFile unsupported format: %s", filepath.Ext(path))
	}
}

// EncodeBMPBase64 encodes the image as a BMP and returns it base64 encoded.
func EncodeBMPBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return "", errors.Wrap(err, "cannot encode bmp")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
