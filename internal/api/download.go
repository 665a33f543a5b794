package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/KameniAlexNea/zindi/internal/progress"
)

const downloadChunkSize = 32 * 1024

// Download streams one challenge datafile to dest. The destination file is
// created exclusively, written in fixed-size chunks while the meter advances,
// and removed again when the transfer fails partway so a truncated file is
// never left behind as trusted output.
func (c *Client) Download(ctx context.Context, challengeID, filename, dest string, meters progress.Factory) error {
	reqURL := c.baseURL.JoinPath("competitions", challengeID, "files", filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	c.applyAuth(req, authHeaderScore)

	c.log.Debug("download request", "url", req.URL.Redacted(), "dest", dest)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", filename, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: status %d", filename, resp.StatusCode)
	}

	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	meter := meters(filename, resp.ContentLength)
	defer meter.Finish()

	if err := copyChunks(file, resp.Body, meter); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("download %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, err)
	}

	c.log.Info("downloaded datafile", "file", filename, "dest", dest)
	return nil
}

func copyChunks(dst io.Writer, src io.Reader, meter *progress.Meter) error {
	buf := make([]byte, downloadChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write chunk: %w", err)
			}
			meter.Add(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read chunk: %w", readErr)
		}
	}
}
