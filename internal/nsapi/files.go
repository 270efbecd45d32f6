package nsapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/maykon/netsuite/internal/sanitize"
)

// base64Content matches payloads shaped like base64: groups of four symbols
// with an optional padded tail. Content that matches is decoded to binary;
// anything else is written through as text.
var base64Content = regexp.MustCompile(`^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`)

// restletFile is the download restlet's response payload.
type restletFile struct {
	Content string `json:"content"`
	Info    struct {
		Name string `json:"name"`
	} `json:"info"`
}

// DownloadFile fetches a file cabinet entry through the configured restlet
// and writes it under folder, returning the resolved destination path. The
// restlet call is made exactly once, outside the executor's retry loop.
func (c *Client) DownloadFile(ctx context.Context, fileID, folder string) (string, error) {
	if c.cfg.ScriptID == "" {
		return "", &ConfigurationError{Missing: "restlet script id"}
	}

	reqBody, err := json.Marshal(map[string]string{"fileId": fileID})
	if err != nil {
		return "", &DownloadError{FileID: fileID, Err: err}
	}

	restletURL := c.restletURL(nil)

	resp, err := c.sendRestlet(ctx, http.MethodPost, restletURL, "application/json", reqBody)
	if err != nil {
		return "", &DownloadError{FileID: fileID, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &DownloadError{FileID: fileID, Err: err}
	}

	c.debugDump(http.MethodPost, restletURL, resp.StatusCode, raw)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &DownloadError{
			FileID: fileID,
			Detail: fmt.Sprintf("%s returned %s: %s", restletURL, resp.Status, bytes.TrimSpace(raw)),
		}
	}

	var file restletFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return "", &DownloadError{FileID: fileID, Err: err}
	}

	data := []byte(file.Content)

	if len(file.Content) > 0 && base64Content.MatchString(file.Content) {
		decoded, decErr := base64.StdEncoding.DecodeString(file.Content)
		if decErr != nil {
			return "", &DownloadError{FileID: fileID, Err: decErr}
		}

		data = decoded
	}

	dest := filepath.Join(folder, sanitize.Filename(file.Info.Name))

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", &DownloadError{FileID: fileID, Err: err}
	}

	c.logger.Info("file downloaded",
		slog.String("file_id", fileID),
		slog.String("path", dest),
		slog.Int("bytes", len(data)),
	)

	return dest, nil
}

// UploadFile reads dir/name and PUTs its bytes to the restlet, addressed by
// the logical destination folder and the sanitized filename. A missing
// local file is a skip, not a failure: uploads are best-effort.
func (c *Client) UploadFile(ctx context.Context, dir, folder, name string) error {
	if c.cfg.ScriptID == "" {
		return &ConfigurationError{Missing: "restlet script id"}
	}

	src := filepath.Join(dir, name)

	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("skipping upload, local file not found", slog.String("path", src))

		return nil
	}

	if err != nil {
		return &UploadError{Name: name, Err: err}
	}

	dest := c.restletURL(url.Values{
		"folder": {folder},
		"name":   {sanitize.Filename(name)},
	})

	resp, err := c.sendRestlet(ctx, http.MethodPut, dest, "application/octet-stream", data)
	if err != nil {
		return &UploadError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UploadError{Name: name, Err: err}
	}

	c.debugDump(http.MethodPut, dest, resp.StatusCode, raw)

	if msg, ok := applicationError(raw); ok {
		return &UploadError{Name: name, Message: msg}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &UploadError{
			Name:    name,
			Message: fmt.Sprintf("%s returned %s", dest, resp.Status),
		}
	}

	c.logger.Info("file uploaded",
		slog.String("path", src),
		slog.String("folder", folder),
		slog.Int("bytes", len(data)),
	)

	return nil
}

// restletURL composes the remote-procedure URL for the configured script,
// plus any extra query parameters. Deployment defaults to "1" when unset.
func (c *Client) restletURL(extra url.Values) string {
	deploy := c.cfg.DeployID
	if deploy == "" {
		deploy = "1"
	}

	q := url.Values{}
	q.Set("script", c.cfg.ScriptID)
	q.Set("deploy", deploy)

	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	return c.endpoints.Restlet + "?" + q.Encode()
}

// sendRestlet issues a single bearer-authenticated call to an absolute URL,
// with no retry or token renewal.
func (c *Client) sendRestlet(
	ctx context.Context, method, absURL, contentType string, body []byte,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, absURL, reader)
	if err != nil {
		return nil, fmt.Errorf("creating restlet request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.state.access())
	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}
