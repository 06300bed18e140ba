package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("only jpg, jpeg, png, gif and webp images are allowed")
	ErrNoFile          = errors.New("no file uploaded")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMIME = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageStore guarda las imágenes subidas en disco y las publica bajo urlPrefix
type ImageStore struct {
	dir          string
	urlPrefix    string
	maxBytes     int64
	placeholders map[string]bool
}

func NewImageStore(dir, urlPrefix string, maxBytes int64, placeholders ...string) *ImageStore {
	s := &ImageStore{
		dir:          dir,
		urlPrefix:    strings.TrimSuffix(urlPrefix, "/"),
		maxBytes:     maxBytes,
		placeholders: make(map[string]bool, len(placeholders)),
	}
	for _, p := range placeholders {
		if p != "" {
			s.placeholders[path.Base(p)] = true
		}
	}
	return s
}

func (s *ImageStore) MaxBytes() int64 { return s.maxBytes }

// Save valida y escribe la imagen como <prefix>-<uuid><ext>.
// Devuelve la ruta pública del archivo.
func (s *ImageStore) Save(fh *multipart.FileHeader, prefix string) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}
	if fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mime, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !mimetype.EqualsAny(mime.String(), allowedMIME...) {
		return "", ErrUnsupportedType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// El tamaño declarado puede mentir; se corta al pasar el límite
	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.urlPrefix + "/" + name, nil
}

// Remove borra el archivo referenciado. Acepta la ruta pública o el nombre
// del archivo. El placeholder y las rutas ajenas al directorio se ignoran.
func (s *ImageStore) Remove(ref string) error {
	name, ok := s.fileName(ref)
	if !ok || s.placeholders[name] {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (s *ImageStore) IsPlaceholder(ref string) bool {
	return ref == "" || s.placeholders[path.Base(ref)]
}

// fileName resuelve la referencia a un nombre plano dentro del directorio
func (s *ImageStore) fileName(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}

	name := ref
	if strings.Contains(ref, "/") {
		if !strings.HasPrefix(ref, s.urlPrefix+"/") {
			return "", false
		}
		name = strings.TrimPrefix(ref, s.urlPrefix+"/")
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}
