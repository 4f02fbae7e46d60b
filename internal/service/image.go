package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
)

// ImageProcessor 上传前压缩内嵌图片
type ImageProcessor struct {
	maxWidth int
	quality  int
}

// NewImageProcessor 创建图片处理器
func NewImageProcessor(maxWidth, quality int) *ImageProcessor {
	if maxWidth <= 0 {
		maxWidth = 600
	}
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	return &ImageProcessor{maxWidth: maxWidth, quality: quality}
}

// IsInline 判断是否为 data URI 图片
func IsInline(image string) bool {
	return strings.HasPrefix(image, "data:")
}

// Downscale 将 data URI 图片缩放到最大宽度并重新编码为 JPEG，其他地址原样返回
func (p *ImageProcessor) Downscale(image string) (string, error) {
	if !IsInline(image) {
		return image, nil
	}

	_, payload := sheet.SplitDataURI(image)
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
