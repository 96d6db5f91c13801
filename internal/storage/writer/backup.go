package writer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
)

// BackupTimeLayout is the second-resolution timestamp appended to backup paths
const BackupTimeLayout = "20060102150405"

// BackupOptions controls how a backup artifact is written
type BackupOptions struct {
	Compress bool             // xz-compress the artifact and append ".xz"
	Now      func() time.Time // clock, time.Now when nil
}

// BackupInfo describes a written backup artifact
type BackupInfo struct {
	Path       string    `json:"path"`
	Bytes      int       `json:"bytes"`
	Digest     string    `json:"blake3"` // BLAKE3-256 of the bytes on disk, hex
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"created_at"`
}

// BackupPath returns <tablePath>.backup.<YYYYMMDDHHMMSS>
func BackupPath(tablePath string, at time.Time) string {
	return tablePath + ".backup." + at.Format(BackupTimeLayout)
}

// WriteBackup writes a fresh current-shape copy of the table next to tablePath.
// Backups are never read back; a second backup within the same second overwrites the first.
func WriteBackup(tablePath string, s *schema.Schema, rows []data.Row, opts BackupOptions) (*BackupInfo, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	createdAt := now()
	path := BackupPath(tablePath, createdAt)

	payload, err := Encode(s, rows)
	if err != nil {
		return nil, &errs.IOError{Op: "encode", Path: path, Err: err}
	}

	if opts.Compress {
		path += ".xz"
		if payload, err = compress(payload); err != nil {
			return nil, &errs.IOError{Op: "compress", Path: path, Err: err}
		}
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		return nil, &errs.IOError{Op: "write", Path: path, Err: err}
	}

	sum := blake3.Sum256(payload)
	return &BackupInfo{
		Path:       path,
		Bytes:      len(payload),
		Digest:     hex.EncodeToString(sum[:]),
		Compressed: opts.Compress,
		CreatedAt:  createdAt,
	}, nil
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
