// Package processor drains the sync queue against the remote API and
// reconciles outcomes back onto the record store. It is the only part
// of the sync subsystem that performs network I/O.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/models"
	"github.com/tradeos/fieldsync/internal/store"
	"github.com/tradeos/fieldsync/internal/syncq"
)

// DefaultTimeout bounds each delivery attempt; a timed-out attempt
// folds into the retry path like any other transport failure.
const DefaultTimeout = 15 * time.Second

// Connectivity reports whether the client currently believes it is
// online. An offline drain is a no-op that consumes no retries.
type Connectivity interface {
	Online() bool
}

// ConnectivityFunc adapts a function to Connectivity.
type ConnectivityFunc func() bool

// Online implements Connectivity.
func (f ConnectivityFunc) Online() bool { return f() }

// Result aggregates the outcome counts of one drain pass.
type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// envelope is the response shape of every remote endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config holds processor construction parameters.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Processor translates queue entries into HTTP requests, strictly one
// at a time so two in-flight requests can never race on one entity.
type Processor struct {
	store   *store.Store
	queue   *syncq.Queue
	conn    Connectivity
	client  *http.Client
	baseURL string
	timeout time.Duration
	log     *logrus.Logger
}

// New creates a Processor.
func New(st *store.Store, q *syncq.Queue, conn Connectivity, cfg Config, log *logrus.Logger) *Processor {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Processor{
		store:   st,
		queue:   q,
		conn:    conn,
		client:  client,
		baseURL: cfg.BaseURL,
		timeout: timeout,
		log:     log,
	}
}

// Drain attempts delivery of every pending mutation, oldest first
// within each priority band. Transport failures are absorbed into
// retry state; only local storage failures propagate. A pass is
// idempotent: delivered mutations are already gone on the next call.
func (p *Processor) Drain(ctx context.Context) (Result, error) {
	var result Result

	if !p.conn.Online() {
		p.log.Debug("drain skipped, offline")
		return result, nil
	}

	pending, err := p.queue.ListPending(ctx)
	if err != nil {
		return result, err
	}

	for _, m := range pending {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if m.RetryCount >= syncq.RetryCeiling {
			p.abandon(ctx, m)
			result.Failed++
			continue
		}

		if err := p.deliver(ctx, m); err != nil {
			result.Failed++
			count, bumpErr := p.queue.BumpRetry(ctx, m.ID, err)
			if bumpErr != nil {
				return result, bumpErr
			}
			p.log.WithFields(logrus.Fields{
				"mutation_id": m.ID,
				"entity_type": m.EntityType,
				"entity_id":   m.EntityID,
				"retry_count": count,
			}).WithError(err).Warn("mutation delivery failed")

			if count >= syncq.RetryCeiling {
				p.abandon(ctx, m)
			}
			continue
		}

		// The entity may have been deleted locally since enqueue;
		// a missing row is not an error here.
		if m.Action != models.ActionDelete {
			if err := p.store.SetSyncStatus(ctx, m.EntityType, m.EntityID, models.SyncStatusSynced); err != nil &&
				!apperrors.Is(err, apperrors.ErrNotFound) {
				return result, err
			}
		}
		if err := p.queue.Remove(ctx, m.ID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return result, err
		}
		result.Success++
	}

	p.recordPass(ctx, result)
	return result, nil
}

// abandon drops a mutation that exhausted its retries. The entity
// stays pending so the UI can surface it as unsynced; RequeueUnsynced
// is the manual resurrection path.
func (p *Processor) abandon(ctx context.Context, m *models.Mutation) {
	if err := p.queue.Remove(ctx, m.ID); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		p.log.WithField("mutation_id", m.ID).WithError(err).Error("failed to drop abandoned mutation")
		return
	}
	p.log.WithFields(logrus.Fields{
		"mutation_id": m.ID,
		"entity_type": m.EntityType,
		"entity_id":   m.EntityID,
		"last_error":  m.LastError,
	}).Warn("mutation abandoned after retry ceiling, entity left unsynced")
}

// recordPass stores drain observability state; failures here are
// logged but never fail the pass.
func (p *Processor) recordPass(ctx context.Context, r Result) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := p.store.SetState(ctx, models.StateLastSyncAt, now); err != nil {
		p.log.WithError(err).Warn("failed to record last sync time")
		return
	}
	encoded, _ := json.Marshal(r)
	if err := p.store.SetState(ctx, models.StateLastResult, string(encoded)); err != nil {
		p.log.WithError(err).Warn("failed to record last sync result")
	}
}

// deliver issues one HTTP request for a mutation. Any transport,
// server, or validation failure comes back as an error for the retry
// path.
func (p *Processor) deliver(ctx context.Context, m *models.Mutation) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var body io.Reader
	contentType := ""

	switch {
	case m.EntityType == models.EntityPhoto && m.Action == models.ActionCreate:
		buf, ct, err := photoMultipart(m.Payload)
		if err != nil {
			return err
		}
		body, contentType = buf, ct
	case m.Action == models.ActionDelete:
		body = nil
	default:
		body = bytes.NewReader(m.Payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(reqCtx, m.HTTPMethod, p.baseURL+m.TargetURL, body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, "failed to build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return apperrors.Wrap(apperrors.ErrSyncTimeout, "delivery timed out", err)
		}
		return apperrors.Wrap(apperrors.ErrTransport, "delivery failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := apperrors.ErrTransport
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
			code = apperrors.ErrValidation
		}
		return apperrors.New(code, fmt.Sprintf("remote returned %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, "malformed response envelope", err)
	}
	if !env.Success {
		return apperrors.New(apperrors.ErrTransport, "remote rejected mutation: "+env.Error)
	}

	return nil
}

// photoMultipart builds the multipart body for a photo upload from
// the payload snapshot: file plus scalar metadata fields.
func photoMultipart(payload json.RawMessage) (*bytes.Buffer, string, error) {
	var photo models.Photo
	if err := json.Unmarshal(payload, &photo); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInvalid, "failed to decode photo payload", err)
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", photo.ID+extensionFor(photo.MimeType))
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternal, "failed to build multipart body", err)
	}
	if _, err := part.Write(photo.Blob); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternal, "failed to write photo blob", err)
	}

	fields := map[string]string{
		"id":         photo.ID,
		"jobId":      photo.JobID,
		"taskId":     photo.TaskID,
		"capturedAt": strconv.FormatInt(photo.CapturedAt, 10),
	}
	if photo.Location != nil {
		fields["latitude"] = strconv.FormatFloat(photo.Location.Latitude, 'f', -1, 64)
		fields["longitude"] = strconv.FormatFloat(photo.Location.Longitude, 'f', -1, 64)
		fields["accuracy"] = strconv.FormatFloat(photo.Location.Accuracy, 'f', -1, 64)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrInternal, "failed to write multipart field", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternal, "failed to finish multipart body", err)
	}
	return buf, w.FormDataContentType(), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
