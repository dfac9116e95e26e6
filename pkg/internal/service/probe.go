package service

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var errNotImage = errors.New("not a decodable image")

// probeImage 读取图片尺寸，视频与 webp 不解析.
func probeImage(path, contentType string) (width, height int, err error) {
	if !strings.HasPrefix(contentType, "image/") {
		return 0, 0, errNotImage
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return 0, 0, errNotImage
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, err
	}

	b := img.Bounds()

	return b.Dx(), b.Dy(), nil
}
