// Package media is the file side of the server: uploads, yt-dlp downloads and
// the optional catalog of both. The room core never touches it; clients only
// pass the resulting URLs through play-song.
package media

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotAudio = errors.New("only audio files are allowed")
	ErrTooLarge = errors.New("file too large")
)

var audioExt = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
	".aac": true,
	".ogg": true,
}

// FileInfo describes a stored file.
type FileInfo struct {
	Name    string    `json:"fileName"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

type Library struct {
	uploadDir   string
	downloadDir string
	maxBytes    int64
	now         func() time.Time
}

// NewLibrary creates both directories if they are missing.
func NewLibrary(uploadDir, downloadDir string, maxBytes int64) (*Library, error) {
	for _, dir := range []string{uploadDir, downloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Library{
		uploadDir:   uploadDir,
		downloadDir: downloadDir,
		maxBytes:    maxBytes,
		now:         time.Now,
	}, nil
}

func (l *Library) UploadDir() string   { return l.uploadDir }
func (l *Library) DownloadDir() string { return l.downloadDir }
func (l *Library) MaxBytes() int64     { return l.maxBytes }

// SaveUpload validates fh as an audio file and stores it under a unique name,
// which it returns.
func (l *Library) SaveUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Size > l.maxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !audioExt[ext] || !strings.Contains(fh.Header.Get("Content-Type"), "audio") {
		return "", ErrNotAudio
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	stored := strconv.FormatInt(l.now().UnixMilli(), 10) + "-" + uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(l.uploadDir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	n, err := io.Copy(dst, io.LimitReader(src, l.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > l.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(l.uploadDir, stored))
		return "", err
	}
	return stored, nil
}

// ListDownloads lists the download directory, newest first.
func (l *Library) ListDownloads() ([]FileInfo, error) {
	entries, err := os.ReadDir(l.downloadDir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while listing
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size(), Created: info.ModTime().UTC()})
	}
	slices.SortFunc(out, func(a, b FileInfo) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Stat returns the size of a stored download.
func (l *Library) Stat(name string) (FileInfo, error) {
	info, err := os.Stat(filepath.Join(l.downloadDir, filepath.Base(name)))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Name: info.Name(), Size: info.Size(), Created: info.ModTime().UTC()}, nil
}
