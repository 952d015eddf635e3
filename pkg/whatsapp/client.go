// Package whatsapp talks to the WhatsApp-compatible upstream API. The only
// concern the ingestion pipeline has here is pulling attachment bytes down
// to local media storage.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/errors"
	"chatdesk/internal/models"
	"chatdesk/internal/normalize"
	"chatdesk/internal/retry"
	"chatdesk/internal/security"
	"chatdesk/pkg/circuitbreaker"
)

const (
	apiKeyHeader = "X-Api-Key"

	breakerMaxFailures = 5
	breakerCooldown    = 30 * time.Second
)

// ClientOptions configures a media Client.
type ClientOptions struct {
	BaseURL    string
	APIKey     string
	MediaDir   string
	MaxSizeMB  int
	Timeout    time.Duration
	RetryCount int
	Logger     *logrus.Logger
}

// Client downloads message attachments from the upstream and stores them
// under the media directory using the fixed per-kind path conventions.
type Client struct {
	baseURL  string
	apiKey   string
	mediaDir string
	maxBytes int64
	client   *http.Client
	backoff  *retry.Backoff
	breaker  *circuitbreaker.Breaker
	logger   *logrus.Logger
}

func NewClient(opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoffCfg := retry.DefaultBackoffConfig()
	if opts.RetryCount > 0 {
		backoffCfg.MaxAttempts = opts.RetryCount
	}
	return &Client{
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		mediaDir: opts.MediaDir,
		maxBytes: int64(opts.MaxSizeMB) * 1024 * 1024,
		client:   &http.Client{Timeout: timeout},
		backoff:  retry.NewBackoff(backoffCfg),
		breaker:  circuitbreaker.New("whatsapp-media", breakerMaxFailures, breakerCooldown, logger),
		logger:   logger,
	}
}

// FetchAndStore downloads the attachment carried by ev and writes it to the
// conventional relative path for msgType. The caller treats failures as
// best-effort: message metadata is stored regardless.
func (c *Client) FetchAndStore(ctx context.Context, ev *models.MessageEvent, msgType models.MessageType) error {
	relPath := normalize.MediaRelPath(msgType, ev.Info.ID, documentOf(ev.Content))
	if relPath == "" {
		return nil
	}
	if err := security.ValidateFilePathWithBase(relPath, c.mediaDir); err != nil {
		return fmt.Errorf("invalid media path: %w", err)
	}

	downloadURL, err := c.downloadURL(ev, msgType)
	if err != nil {
		return err
	}

	destPath := filepath.Join(c.mediaDir, relPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.backoff.RetryWithPredicate(ctx, func() error {
			return c.download(ctx, downloadURL, destPath)
		}, isTransientFetchError)
	})
	if err != nil {
		if isTransientFetchError(err) || circuitbreaker.IsOpenError(err) {
			return errors.WrapRetryable(err, errors.ErrCodeMediaDownload, "media download failed")
		}
		return errors.Wrap(err, errors.ErrCodeMediaDownload, "media download failed")
	}
	return nil
}

// downloadURL prefers the direct URL embedded in the content and falls back
// to the upstream's by-message download endpoint.
func (c *Client) downloadURL(ev *models.MessageEvent, msgType models.MessageType) (string, error) {
	if media := mediaOf(ev.Content, msgType); media != nil && media.URL != "" {
		return media.URL, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("no download URL for message and no API base configured")
	}
	return fmt.Sprintf("%s/media/%s/download", c.baseURL, url.PathEscape(ev.Info.ID)), nil
}

func (c *Client) download(ctx context.Context, srcURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &fetchError{err: fmt.Errorf("download request failed: %w", err), transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &fetchError{
			err:       fmt.Errorf("download returned status %d", resp.StatusCode),
			transient: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &fetchError{err: fmt.Errorf("failed to write media: %w", err), transient: true}
	}
	if c.maxBytes > 0 && n > c.maxBytes {
		return fmt.Errorf("media exceeds size limit of %d bytes", c.maxBytes)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("failed to move media into place: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"path":  destPath,
		"bytes": n,
	}).Debug("Stored media attachment")
	return nil
}

type fetchError struct {
	err       error
	transient bool
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

func isTransientFetchError(err error) bool {
	fe, ok := err.(*fetchError)
	return ok && fe.transient
}

func mediaOf(content *models.MessageContent, msgType models.MessageType) *models.MediaMessage {
	if content == nil {
		return nil
	}
	switch msgType {
	case models.MessageTypeImage:
		return content.Image
	case models.MessageTypeSticker:
		return content.Sticker
	case models.MessageTypeAudio:
		return content.Audio
	case models.MessageTypeVideo:
		return content.Video
	}
	return nil
}

func documentOf(content *models.MessageContent) *models.DocumentMessage {
	if content == nil {
		return nil
	}
	return content.Document
}
