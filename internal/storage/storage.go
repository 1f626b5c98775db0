package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

var (
	ErrOutsideRoot = errors.New("path outside upload folder")
	unsafeChars    = regexp.MustCompile(`[^A-Za-z0-9_\-.]`)
	allowedExt     = map[string]bool{
		"pdf": true, "doc": true, "docx": true, "jpg": true,
		"jpeg": true, "png": true, "txt": true, "csv": true,
	}
)

const maxFilenameLen = 200

// Local stores uploads below a single root directory.
type Local struct {
	Root string
	now  func() time.Time
}

func New(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &Local{Root: abs, now: time.Now}, nil
}

// SafeFilename reduces a client supplied name to a safe basename.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		name = ""
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if strings.Trim(name, "._") == "" {
		return "attachment"
	}
	return name
}

func AllowedFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return allowedExt[ext]
}

// MimeType guesses from the extension first and sniffs the bytes otherwise.
func MimeType(name string, data []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			return t
		}
	}
	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}
	return "application/octet-stream"
}

// DecodeBase64 accepts plain base64 and data URLs.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)
	if s == "" {
		return nil, errors.New("empty base64 payload")
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func (l *Local) stamp() string {
	return l.now().Format("20060102_150405")
}

func (l *Local) write(rel string, data []byte) error {
	full := filepath.Join(l.Root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// SaveTicketAttachment writes tickets/{id}/{base}_{idx}_{ts}{ext}.
func (l *Local) SaveTicketAttachment(ticketID, name string, data []byte, idx int) (models.Attachment, error) {
	safe := SafeFilename(name)
	ext := filepath.Ext(safe)
	base := strings.TrimSuffix(safe, ext)
	if ext == "" && len(base) > 32 {
		base = base[:32]
	}
	rel := filepath.ToSlash(filepath.Join("tickets", SafeFilename(ticketID), fmt.Sprintf("%s_%d_%s%s", base, idx, l.stamp(), ext)))
	if err := l.write(rel, data); err != nil {
		return models.Attachment{}, fmt.Errorf("save ticket attachment: %w", err)
	}
	uploaded := l.now().UTC()
	return models.Attachment{
		Filename:   name,
		FileName:   name,
		FilePath:   rel,
		MimeType:   MimeType(name, data),
		Size:       int64(len(data)),
		UploadedAt: &uploaded,
	}, nil
}

// SaveBytes writes {subdir}/{prefix}_{ts}_{base}{ext}.
func (l *Local) SaveBytes(subdir, prefix, name string, data []byte) (models.Attachment, error) {
	safe := SafeFilename(name)
	ext := filepath.Ext(safe)
	base := strings.TrimSuffix(safe, ext)
	rel := filepath.ToSlash(filepath.Join(subdir, fmt.Sprintf("%s_%s_%s%s", prefix, l.stamp(), base, ext)))
	if err := l.write(rel, data); err != nil {
		return models.Attachment{}, fmt.Errorf("save file: %w", err)
	}
	return models.Attachment{
		Filename: name,
		FilePath: rel,
		MimeType: MimeType(name, data),
		Size:     int64(len(data)),
	}, nil
}

func (l *Local) resolve(path string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.Root, path)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(l.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// ReadFile reads a stored file, refusing paths that escape the root.
func (l *Local) ReadFile(path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (l *Local) Remove(path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}
