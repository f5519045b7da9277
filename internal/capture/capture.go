// Package capture turns a camera frame or user-selected file into a
// stored Photo entity, never blocking on the network.
package capture

import (
	"bytes"
	"context"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/models"
	"github.com/tradeos/fieldsync/internal/store"
	"github.com/tradeos/fieldsync/internal/uuid"
)

const (
	// MaxWidth and MaxHeight bound the stored image. Frames are
	// downscaled to fit, never upscaled.
	MaxWidth  = 1920
	MaxHeight = 1080

	// JPEGQuality bounds the payload size of the re-encoded frame.
	JPEGQuality = 85

	// DefaultFixWait bounds the geolocation wait; a missing fix is
	// not an error.
	DefaultFixWait = 8 * time.Second

	// MaxFixAge is the oldest cached fix still worth attaching.
	MaxFixAge = 5 * time.Minute
)

// FrameSource produces one raw image, either a live video frame grab
// or a decoded user-selected file.
type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
}

// FileSource adapts a picked file to FrameSource.
type FileSource struct {
	r io.Reader
}

// NewFileSource wraps an opened image file.
func NewFileSource(r io.Reader) *FileSource {
	return &FileSource{r: r}
}

// Frame decodes the file, honoring EXIF orientation.
func (f *FileSource) Frame(ctx context.Context) (image.Image, error) {
	img, err := imaging.Decode(f.r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCapture, "failed to decode image file", err)
	}
	return img, nil
}

// Locator acquires a geolocation fix. Implementations must respect
// ctx cancellation.
type Locator interface {
	Fix(ctx context.Context) (models.Geo, error)
}

// Trigger requests an opportunistic, non-blocking sync attempt.
type Trigger interface {
	TriggerSync(ctx context.Context) bool
}

// Options carries per-capture metadata.
type Options struct {
	JobID  string
	TaskID string
}

// Pipeline normalizes raw frames into Photo entities and hands them
// to the record store. locator and trigger may be nil; capture then
// skips geolocation and the immediate upload attempt.
type Pipeline struct {
	store     *store.Store
	locator   Locator
	trigger   Trigger
	fixWait   time.Duration
	maxFixAge time.Duration
	log       *logrus.Logger
}

// NewPipeline creates a Pipeline with the default geolocation bounds.
func NewPipeline(st *store.Store, locator Locator, trigger Trigger, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		locator:   locator,
		trigger:   trigger,
		fixWait:   DefaultFixWait,
		maxFixAge: MaxFixAge,
		log:       log,
	}
}

// Capture acquires a frame, normalizes it, and saves the resulting
// Photo with a pending sync status. The local save succeeds even when
// the device is fully offline; one opportunistic upload attempt is
// triggered afterwards without affecting the result.
func (p *Pipeline) Capture(ctx context.Context, src FrameSource, opts Options) (*models.Photo, error) {
	img, err := src.Frame(ctx)
	if err != nil {
		return nil, err
	}

	blob, err := encode(fit(img))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	photo := &models.Photo{
		ID:         uuid.New(),
		JobID:      opts.JobID,
		TaskID:     opts.TaskID,
		Blob:       blob,
		MimeType:   mimetype.Detect(blob).String(),
		Size:       int64(len(blob)),
		CapturedAt: now.Unix(),
		Location:   p.acquireFix(ctx, now),
		SyncStatus: models.SyncStatusPending,
	}

	if err := p.store.SavePhoto(ctx, photo); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"photo_id": photo.ID,
		"job_id":   photo.JobID,
		"size":     photo.Size,
		"located":  photo.Location != nil,
	}).Info("photo captured")

	if p.trigger != nil {
		p.trigger.TriggerSync(ctx)
	}

	return photo, nil
}

// fit downscales a frame to the bounding box, preserving aspect
// ratio. Frames already inside the box pass through untouched.
func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxWidth && b.Dy() <= MaxHeight {
		return img
	}
	return imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
}

func encode(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCapture, "failed to encode frame", err)
	}
	return buf.Bytes(), nil
}

// acquireFix waits a bounded time for a geolocation fix and discards
// stale ones. Absence of a fix is not an error.
func (p *Pipeline) acquireFix(ctx context.Context, now time.Time) *models.Geo {
	if p.locator == nil {
		return nil
	}

	fixCtx, cancel := context.WithTimeout(ctx, p.fixWait)
	defer cancel()

	g, err := p.locator.Fix(fixCtx)
	if err != nil {
		p.log.WithError(err).Debug("no geolocation fix, storing photo without location")
		return nil
	}
	if g.FixedAt > 0 && g.Age(now) > p.maxFixAge {
		p.log.WithField("age", g.Age(now).String()).Debug("geolocation fix too stale, discarded")
		return nil
	}
	return &g
}
