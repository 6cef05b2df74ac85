package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize bounds a single attachment. Oversized uploads are rejected
// before anything touches disk or the database.
const MaxFileSize = 10 << 20 // 10 MiB

var (
	ErrFileTooLarge = errors.New("uploads: file exceeds size limit")
	ErrNotFound     = errors.New("uploads: file not found")
)

var imageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// IsImageMIME reports whether the declared content type is a displayable
// image. Anything else is treated as a generic file.
func IsImageMIME(mime string) bool {
	_, ok := imageMIMETypes[strings.ToLower(mime)]
	return ok
}

// File is an incoming attachment: declared metadata plus the byte stream.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Stored describes a persisted attachment by its serving URL.
type Stored struct {
	URL  string
	MIME string
	Name string
	Size int64
}

// Store persists attachment bytes and resolves serving paths. The domain
// layer enforces classification; the store enforces the size bound.
type Store interface {
	Save(conversationID uuid.UUID, file File) (Stored, error)
	Resolve(conversationID uuid.UUID, filename string) (string, error)
}

// DiskStore keeps attachments on local disk, one directory per conversation.
type DiskStore struct {
	baseDir string
}

// NewDiskStore constructs a DiskStore rooted at baseDir.
func NewDiskStore(baseDir string) *DiskStore {
	return &DiskStore{baseDir: baseDir}
}

// Save writes the file under a fresh random name, preserving the original
// extension, and returns its serving URL.
func (s *DiskStore) Save(conversationID uuid.UUID, file File) (Stored, error) {
	if file.Size > MaxFileSize {
		return Stored{}, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, file.Name, file.Size)
	}

	dir := filepath.Join(s.baseDir, conversationID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(file.Name)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return Stored{}, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	// The declared size is client input; the limit holds for the actual
	// bytes too.
	written, err := io.Copy(dst, io.LimitReader(file.Reader, MaxFileSize+1))
	if err != nil {
		return Stored{}, fmt.Errorf("write upload file: %w", err)
	}
	if written > MaxFileSize {
		_ = os.Remove(dst.Name())
		return Stored{}, fmt.Errorf("%w: %s", ErrFileTooLarge, file.Name)
	}

	return Stored{
		URL:  fmt.Sprintf("/uploads/%s/%s", conversationID, name),
		MIME: file.ContentType,
		Name: file.Name,
		Size: written,
	}, nil
}

// Resolve maps a conversation id and filename to an on-disk path, refusing
// anything that escapes the conversation's directory.
func (s *DiskStore) Resolve(conversationID uuid.UUID, filename string) (string, error) {
	if filepath.Base(filename) != filename {
		return "", ErrNotFound
	}
	path := filepath.Join(s.baseDir, conversationID.String(), filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}
