package handler

import (
	"fmt"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

const badgeIconSize = 128

// UploadBadgeIcon 处理徽章图标上传：解码、缩放到统一尺寸、统一存为 PNG
func (a *API) UploadBadgeIcon(c *gin.Context) {
	file, err := c.FormFile("icon")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图标")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取上传文件失败")
		return
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无法解析图片")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	newFilename := fmt.Sprintf("badge-%s.png", uuid.New().String())
	filePath := filepath.Join(a.uploadDir, newFilename)

	out, err := os.Create(filePath)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}
	defer out.Close()

	if err := png.Encode(out, scaleBadgeIcon(img)); err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), newFilename)
	c.JSON(http.StatusOK, gin.H{
		"message": "上传成功",
		"url":     fileURL,
	})
}

// scaleBadgeIcon 把图标等比缩放进 128x128 画布，小图保持原样
func scaleBadgeIcon(src image.Image) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= badgeIconSize && bounds.Dy() <= badgeIconSize {
		return src
	}

	ratio := float64(badgeIconSize) / float64(bounds.Dx())
	if dy := float64(badgeIconSize) / float64(bounds.Dy()); dy < ratio {
		ratio = dy
	}
	width := int(float64(bounds.Dx()) * ratio)
	height := int(float64(bounds.Dy()) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
