package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// Part sizing for multipart uploads. S3 caps an upload at 10000 parts.
const (
	TargetPartSize int64 = 64 << 20
	MaxPartCount         = 10000
)

// DeriveKey builds the storage key for a new object:
// users/<owner>/<yyyy>/<mm>/<dd>/<suffix>_<name>. The shortuuid suffix makes
// keys unique even when one owner uploads the same filename concurrently, and
// the original extension survives for MIME inference at the backend.
func DeriveKey(ownerID uuid.UUID, filename string, now time.Time) string {
	return fmt.Sprintf("users/%s/%04d/%02d/%02d/%s_%s",
		ownerID, now.Year(), now.Month(), now.Day(), shortuuid.New(), sanitizeName(filename))
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// ComputeChecksum reads r to the end and returns the hex sha256 digest along
// with the number of bytes read. Advisory integrity only, never the key.
func ComputeChecksum(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Extension returns the lower-cased extension of a filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// MIMEByExtension resolves a content type from the filename extension,
// defaulting to application/octet-stream.
func MIMEByExtension(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// PartCount sizes a multipart plan by TargetPartSize, clamped to [1, MaxPartCount].
func PartCount(declaredSize int64) int {
	n := int((declaredSize + TargetPartSize - 1) / TargetPartSize)
	if n < 1 {
		n = 1
	}
	if n > MaxPartCount {
		n = MaxPartCount
	}
	return n
}
