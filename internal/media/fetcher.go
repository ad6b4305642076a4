package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrEmptyOutput = errors.New("yt-dlp produced no output")

// SearchResult is one search hit.
type SearchResult struct {
	Thumbnail string `json:"thumbnail"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Duration  string `json:"duration"`
	Views     int64  `json:"views"`
	Author    string `json:"author"`
}

// Fetcher finds and downloads remote audio.
type Fetcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	Download(ctx context.Context, url string) (string, error)
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// YtDlp drives the yt-dlp binary.
type YtDlp struct {
	bin    string
	ffmpeg string
	dir    string
	limit  int
	run    runFunc
}

var _ Fetcher = (*YtDlp)(nil)

func NewYtDlp(bin, ffmpeg, downloadDir string, limit int) *YtDlp {
	return &YtDlp{bin: bin, ffmpeg: ffmpeg, dir: downloadDir, limit: limit, run: runCommand}
}

// ytEntry is the subset of yt-dlp's --dump-json output we read.
type ytEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	Duration   float64 `json:"duration"`
	ViewCount  int64   `json:"view_count"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	Thumbnail  string  `json:"thumbnail"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

func (y *YtDlp) Search(ctx context.Context, query string) ([]SearchResult, error) {
	out, err := y.run(ctx, y.bin,
		"--dump-json", "--flat-playlist", "--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", y.limit, query),
	)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, y.limit)
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e ytEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parse search result: %w", err)
		}
		results = append(results, e.result())
		if len(results) == y.limit {
			break
		}
	}
	return results, sc.Err()
}

func (e ytEntry) result() SearchResult {
	r := SearchResult{
		Title:     e.Title,
		URL:       e.WebpageURL,
		Duration:  timestamp(e.Duration),
		Views:     e.ViewCount,
		Author:    e.Channel,
		Thumbnail: e.Thumbnail,
	}
	if r.URL == "" {
		r.URL = e.URL
	}
	if r.Author == "" {
		r.Author = e.Uploader
	}
	if r.Thumbnail == "" && len(e.Thumbnails) > 0 {
		r.Thumbnail = e.Thumbnails[len(e.Thumbnails)-1].URL
	}
	return r
}

// Download extracts mp3 audio from url into the download directory and
// returns the stored file name.
func (y *YtDlp) Download(ctx context.Context, url string) (string, error) {
	args := []string{
		"--extract-audio", "--audio-format", "mp3",
		"--no-check-certificates", "--no-warnings",
		"--prefer-free-formats", "--add-metadata",
		"--no-playlist",
		"--output", filepath.Join(y.dir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
	}
	if y.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", y.ffmpeg)
	}
	args = append(args, "--", url)

	out, err := y.run(ctx, y.bin, args...)
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return "", ErrEmptyOutput
	}
	return filepath.Base(last), nil
}

// timestamp formats seconds the way video sites show them: m:ss or h:mm:ss.
func timestamp(sec float64) string {
	if sec <= 0 {
		return ""
	}
	s := int(sec)
	h, m := s/3600, (s%3600)/60
	s %= 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return strconv.Itoa(m) + ":" + fmt.Sprintf("%02d", s)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
