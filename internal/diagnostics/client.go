package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)

// Client invokes external inference services with a single-part multipart image
// upload and decodes their JSON response verbatim. No retries and no timeout
// beyond transport defaults; the services are internal.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates an inference client.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		http:   &http.Client{},
		logger: logger.With("system", "inference"),
	}
}

// Invoke posts the image to the endpoint and returns the decoded JSON body.
// Transport failures, non-2xx statuses, and undecodable bodies all surface as
// ErrUnavailable.
func (c *Client) Invoke(
	ctx context.Context,
	endpoint string,
	image []byte,
	filename string,
	contentType string,
) (map[string]any, error) {
	body, formType, err := encodeImageForm(image, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", formType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, endpoint, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("inference response received", "endpoint", endpoint)
	return raw, nil
}

func encodeImageForm(image []byte, filename, contentType string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set(
		"Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(filename)),
	)
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}

	return body, form.FormDataContentType(), nil
}
