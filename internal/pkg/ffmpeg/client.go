package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Client wraps ffprobe invocations.
type Client struct {
	binPath string // ffprobe binary (default: ffprobe)
}

// NewClient returns a client using FFPROBE_PATH or ffprobe from PATH.
func NewClient() *Client {
	binPath := os.Getenv("FFPROBE_PATH")
	if binPath == "" {
		binPath = "ffprobe"
	}
	return NewClientWithPath(binPath)
}

// NewClientWithPath returns a client using the given ffprobe binary.
func NewClientWithPath(binPath string) *Client {
	return &Client{binPath: binPath}
}

// Available reports whether the ffprobe binary can be found.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binPath)
	return err == nil
}

// VideoInfo is the subset of stream metadata the project document records.
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64 // seconds
}

type streamReport struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetVideoInfo reads the first video stream of videoPath.
// Fields ffprobe does not report are left zero.
func (c *Client) GetVideoInfo(ctx context.Context, videoPath string) (*VideoInfo, error) {
	// ffprobe -v error -select_streams v:0 -show_entries stream=width,height,r_frame_rate -show_entries format=duration -of json video.mp4
	cmd := exec.CommandContext(ctx, c.binPath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseVideoInfo(output)
}

func parseVideoInfo(data []byte) (*VideoInfo, error) {
	var out streamReport
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	if len(out.Streams) > 0 {
		s := out.Streams[0]
		info.Width = s.Width
		info.Height = s.Height
		info.FPS = parseFrameRate(s.RFrameRate)
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil {
		info.Duration = d
	}
	return info, nil
}

// parseFrameRate parses "30/1" or "30000/1001" style rates.
func parseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
