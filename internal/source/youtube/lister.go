package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
)

const defaultListerBinary = "yt-dlp"

// CommandLister lists search hits by shelling out to a video metadata
// extractor that prints one JSON object per video.
type CommandLister struct {
	binary string
	logger *slog.Logger
}

func NewCommandLister(logger *slog.Logger) *CommandLister {
	return &CommandLister{
		binary: defaultListerBinary,
		logger: logger.With("component", "video_lister"),
	}
}

type listerEntry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
}

func (l *CommandLister) List(ctx context.Context, queryURL string) ([]Video, error) {
	cmd := exec.CommandContext(ctx, l.binary, "--flat-playlist", "--dump-json", queryURL)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", l.binary, err)
	}

	var videos []Video
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry listerEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			l.logger.Debug("skipping unparseable lister output line", "error", err)
			continue
		}

		url := entry.WebpageURL
		if url == "" {
			url = entry.URL
		}
		videos = append(videos, Video{
			ID:    entry.ID,
			Title: entry.Title,
			URL:   url,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s output: %w", l.binary, err)
	}

	l.logger.Debug("listed videos", "url", queryURL, "count", len(videos))
	return videos, nil
}
