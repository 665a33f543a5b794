package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"

	"github.com/KameniAlexNea/zindi/internal/progress"
)

// Submit uploads one submission file with its comment and returns the new
// submission id. The multipart body is encoded up front so the meter knows
// the total, then drained through a progress-counting reader as the POST
// consumes it.
func (c *Client) Submit(ctx context.Context, challengeID, filePath, comment string, meters progress.Factory) (string, error) {
	body, contentType, err := encodeSubmission(filePath, comment)
	if err != nil {
		return "", err
	}

	meter := meters("submit "+filepath.Base(filePath), int64(body.Len()))
	defer meter.Finish()

	query := url.Values{}
	query.Set("auth_token", c.token)

	reqURL := c.baseURL.JoinPath("competitions", challengeID, "submissions")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(),
		io.TeeReader(body, meter))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(body.Len())
	c.applyAuth(req, authHeaderScore)

	var payload struct {
		ID FlexString `json:"id"`
	}
	if err := c.do(req, &payload); err != nil {
		return "", err
	}

	c.log.Info("submission uploaded", "file", filePath, "id", payload.ID.String())
	return payload.ID.String(), nil
}

// encodeSubmission builds the multipart body: the file content under "file"
// with a text/plain part type, plus the comment field.
func encodeSubmission(filePath, comment string) (*bytes.Buffer, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filePath)))
	header.Set("Content-Type", "text/plain")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", filePath, err)
	}
	if err := writer.WriteField("comment", comment); err != nil {
		return nil, "", fmt.Errorf("encode comment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
