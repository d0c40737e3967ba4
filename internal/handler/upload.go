package handler

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/flicky/go-storefront-api/internal/dto"
)

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newFileID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

type UploadHandler struct {
	dir      string
	maxBytes int64
}

func NewUploadHandler(dir string, maxBytes int64) *UploadHandler {
	return &UploadHandler{dir: dir, maxBytes: maxBytes}
}

// Upload stores the multipart "image" field and returns its public path.
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	wantType, ok := allowedImageTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only jpg, jpeg and png images are allowed"})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != wantType {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only jpg, jpeg and png images are allowed"})
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		respondError(c, fmt.Errorf("create upload dir: %w", err))
		return
	}

	name := "image-" + newFileID() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		respondError(c, fmt.Errorf("save upload: %w", err))
		return
	}

	c.JSON(http.StatusCreated, dto.UploadResponse{Image: "/uploads/" + name})
}
