package app

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pdf-quiz-service/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// Upload is one incoming file.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// storeUpload validates a PDF upload and writes it to dir under its base
// name. Files with the same name overwrite each other.
func storeUpload(dir string, maxBytes int64, up Upload) (domain.Document, error) {
	name := filepath.Base(strings.TrimSpace(up.Filename))
	if name == "." || name == ".." || name == string(filepath.Separator) || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return domain.Document{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, up.Filename)
	}
	if maxBytes > 0 && up.Size > maxBytes {
		return domain.Document{}, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, up.Size)
	}

	br := bufio.NewReader(up.Body)
	head, _ := br.Peek(len(pdfMagic))
	if !bytes.Equal(head, pdfMagic) {
		return domain.Document{}, fmt.Errorf("%w: %s is not a PDF", domain.ErrUnsupportedFileType, name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Document{}, fmt.Errorf("create upload dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return domain.Document{}, fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var src io.Reader = br
	if maxBytes > 0 {
		src = io.LimitReader(br, maxBytes+1)
	}
	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("write upload: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		return domain.Document{}, fmt.Errorf("%w: more than %d bytes", domain.ErrFileTooLarge, maxBytes)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return domain.Document{}, fmt.Errorf("store upload: %w", err)
	}
	return domain.Document{
		Name:   name,
		Path:   dest,
		Digest: hex.EncodeToString(hash.Sum(nil)),
		Size:   written,
	}, nil
}
