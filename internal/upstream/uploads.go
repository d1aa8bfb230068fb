package upstream

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-console-api/internal/models"
	appErrors "github.com/noah-isme/exam-console-api/pkg/errors"
)

// EventSink receives decoded events as the upload stream progresses.
type EventSink func(models.ImportEvent)

// Upload streams a bulk import file to the backend and relays the progress
// events it emits. The call returns once the stream ends; a mid-stream error
// event is reported through the sink, not as a Go error, so stats reported
// before the failure survive.
func (c *Client) Upload(ctx context.Context, auth, term, fileName string, file io.Reader, sink EventSink) error {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.WriteField("term", term); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads/", pr)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.streaming.Do(req)
	if err != nil {
		if c.observer != nil {
			c.observer.ObserveUpstreamRequest("POST /uploads/", false, time.Since(start))
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.observer != nil {
			c.observer.ObserveUpstreamRequest("POST /uploads/", false, time.Since(start))
		}
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("scheduler backend returned %d", resp.StatusCode))
	}

	parser := &EventParser{}
	chunk := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			for _, event := range parser.Feed(chunk[:n]) {
				sink(event)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if c.observer != nil {
				c.observer.ObserveUpstreamRequest("POST /uploads/", false, time.Since(start))
			}
			c.logger.Warn("upload stream interrupted", zap.Error(readErr))
			return appErrors.Wrap(readErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "upload stream interrupted")
		}
	}
	for _, event := range parser.Flush() {
		sink(event)
	}

	if c.observer != nil {
		c.observer.ObserveUpstreamRequest("POST /uploads/", true, time.Since(start))
	}
	return nil
}
