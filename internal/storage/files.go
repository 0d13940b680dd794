// Package storage keeps attachment blobs on local disk under UPLOAD_DIR.
// Blobs are named by uuid so uploads can never collide or traverse paths.
package storage

import (
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var baseDir string

func Init() error {
	baseDir = os.Getenv("UPLOAD_DIR")

	if baseDir == "" {
		baseDir = "./uploads"
	}

	return os.MkdirAll(baseDir, 0o755)
}

// Save writes the uploaded file to disk and returns the generated stored
// name together with the number of bytes written.
func Save(header *multipart.FileHeader) (string, int64, error) {
	src, err := header.Open()

	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	storedName := uuid.NewString() + filepath.Ext(header.Filename)

	dst, err := os.Create(Path(storedName))

	if err != nil {
		return "", 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)

	if err != nil {
		os.Remove(Path(storedName))
		return "", 0, err
	}

	return storedName, size, nil
}

// Remove deletes a stored blob. A blob that is already gone is not an
// error: the metadata row is the source of truth being removed alongside.
func Remove(storedName string) error {
	err := os.Remove(Path(storedName))

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Exists reports whether the blob is present on disk.
func Exists(storedName string) bool {
	_, err := os.Stat(Path(storedName))
	return err == nil
}

func Path(storedName string) string {
	return filepath.Join(baseDir, filepath.Base(storedName))
}
