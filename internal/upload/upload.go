// Package upload сохраняет вложения постов в каталог на диске.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/google/uuid"
)

// ErrRejectedExtension - расширение файла вне списка разрешенных
var ErrRejectedExtension = apperr.ErrRejectedExtension

// ErrFileNotFound - файла уже нет на диске, вызывающие считают это предупреждением
var ErrFileNotFound = errors.New("stored file not found")

var allowedExtensions = map[string]struct{}{
	"txt":  {},
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// Attachment - файл от клиента. Filename используется только для проверки расширения.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// Store - контракт адаптера, который нужен хранилищу постов
type Store interface {
	Store(att Attachment) (string, error)
	Delete(name string) error
}

// Extension возвращает расширение в нижнем регистре, если оно разрешено
func Extension(filename string) (string, error) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", ErrRejectedExtension
	}
	ext := strings.ToLower(filename[idx+1:])
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrRejectedExtension
	}
	return ext, nil
}

// LocalStore пишет файлы в Dir под именами uuid.ext
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Store(att Attachment) (string, error) {
	ext, err := Extension(att.Filename)
	if err != nil {
		return "", err
	}
	if att.Content == nil {
		return "", apperr.Validation("file", "file is empty")
	}

	name := uuid.NewString() + "." + ext
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("could not create file: %w", err)
	}

	if _, err = io.Copy(f, att.Content); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("could not write file: %w", err)
	}
	if err = f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("could not close file: %w", err)
	}

	return name, nil
}

func (s *LocalStore) Delete(name string) error {
	// имя генерирует Store, но путь все равно не должен выходить за каталог
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid stored file name %q", name)
	}

	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// Path нужен HTTP-слою для отдачи файла
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}
