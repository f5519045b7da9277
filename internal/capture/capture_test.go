package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/models"
	"github.com/tradeos/fieldsync/internal/store"
	"github.com/tradeos/fieldsync/internal/syncq"
)

func newTestStore(t *testing.T) (*store.Store, *syncq.Queue) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db.DB); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return store.New(db.DB, log), syncq.New(db.DB, log)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// frameFunc adapts a function to FrameSource.
type frameFunc func(ctx context.Context) (image.Image, error)

func (f frameFunc) Frame(ctx context.Context) (image.Image, error) { return f(ctx) }

func solidFrame(w, h int) FrameSource {
	return frameFunc(func(context.Context) (image.Image, error) {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
			}
		}
		return img, nil
	})
}

// locatorFunc adapts a function to Locator.
type locatorFunc func(ctx context.Context) (models.Geo, error)

func (f locatorFunc) Fix(ctx context.Context) (models.Geo, error) { return f(ctx) }

// countingTrigger records sync trigger calls.
type countingTrigger struct{ calls int }

func (c *countingTrigger) TriggerSync(context.Context) bool {
	c.calls++
	return true
}

func TestCaptureDownscalesOversizedFrame(t *testing.T) {
	s, q := newTestStore(t)
	p := NewPipeline(s, nil, nil, testLogger())

	photo, err := p.Capture(context.Background(), solidFrame(4000, 3000), Options{JobID: "j1"})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(photo.Blob))
	if err != nil {
		t.Fatalf("stored blob is not decodable: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxWidth || b.Dy() > MaxHeight {
		t.Errorf("stored frame is %dx%d, exceeds %dx%d", b.Dx(), b.Dy(), MaxWidth, MaxHeight)
	}
	// 4:3 source fitted into 1920x1080 is height-bound.
	if b.Dy() != MaxHeight {
		t.Errorf("height = %d, want %d", b.Dy(), MaxHeight)
	}

	if photo.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", photo.MimeType)
	}
	if photo.Size != int64(len(photo.Blob)) {
		t.Errorf("Size = %d, blob = %d", photo.Size, len(photo.Blob))
	}
	if photo.SyncStatus != models.SyncStatusPending {
		t.Errorf("SyncStatus = %q, want pending", photo.SyncStatus)
	}

	// The save enqueues the upload mutation.
	pending, _ := q.ListPending(context.Background())
	if len(pending) != 1 || pending[0].EntityID != photo.ID {
		t.Errorf("unexpected queue state: %+v", pending)
	}
}

func TestCaptureKeepsSmallFrame(t *testing.T) {
	s, _ := newTestStore(t)
	p := NewPipeline(s, nil, nil, testLogger())

	photo, err := p.Capture(context.Background(), solidFrame(640, 480), Options{JobID: "j1"})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(photo.Blob))
	if err != nil {
		t.Fatalf("stored blob is not decodable: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("stored frame is %dx%d, want 640x480 untouched", b.Dx(), b.Dy())
	}
}

func TestCaptureAttachesFreshFix(t *testing.T) {
	s, _ := newTestStore(t)
	loc := locatorFunc(func(context.Context) (models.Geo, error) {
		return models.Geo{Latitude: -37.81, Longitude: 144.96, Accuracy: 10, FixedAt: time.Now().Unix()}, nil
	})
	p := NewPipeline(s, loc, nil, testLogger())

	photo, err := p.Capture(context.Background(), solidFrame(100, 100), Options{JobID: "j1"})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if photo.Location == nil {
		t.Fatal("expected location to be attached")
	}
	if photo.Location.Latitude != -37.81 {
		t.Errorf("Latitude = %v", photo.Location.Latitude)
	}
}

func TestCaptureSurvivesLocatorTimeout(t *testing.T) {
	s, q := newTestStore(t)
	loc := locatorFunc(func(ctx context.Context) (models.Geo, error) {
		<-ctx.Done()
		return models.Geo{}, ctx.Err()
	})
	p := NewPipeline(s, loc, nil, testLogger())
	p.fixWait = 20 * time.Millisecond

	photo, err := p.Capture(context.Background(), solidFrame(100, 100), Options{JobID: "j1"})
	if err != nil {
		t.Fatalf("Capture failed despite locator timeout: %v", err)
	}
	if photo.Location != nil {
		t.Errorf("expected nil location, got %+v", photo.Location)
	}

	// The photo still lands pending with a queue entry.
	got, _ := s.GetPhoto(context.Background(), photo.ID)
	if got == nil || got.SyncStatus != models.SyncStatusPending {
		t.Errorf("unexpected stored photo: %+v", got)
	}
	if n, _ := q.Size(context.Background()); n != 1 {
		t.Errorf("queue size = %d, want 1", n)
	}
}

func TestCaptureDiscardsStaleFix(t *testing.T) {
	s, _ := newTestStore(t)
	loc := locatorFunc(func(context.Context) (models.Geo, error) {
		return models.Geo{
			Latitude: 1, Longitude: 1,
			FixedAt: time.Now().Add(-10 * time.Minute).Unix(),
		}, nil
	})
	p := NewPipeline(s, loc, nil, testLogger())

	photo, err := p.Capture(context.Background(), solidFrame(100, 100), Options{})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if photo.Location != nil {
		t.Errorf("expected stale fix to be discarded, got %+v", photo.Location)
	}
}

func TestCaptureTriggersSync(t *testing.T) {
	s, _ := newTestStore(t)
	trig := &countingTrigger{}
	p := NewPipeline(s, nil, trig, testLogger())

	if _, err := p.Capture(context.Background(), solidFrame(50, 50), Options{}); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if trig.calls != 1 {
		t.Errorf("trigger calls = %d, want 1", trig.calls)
	}
}

func TestCaptureFrameError(t *testing.T) {
	s, _ := newTestStore(t)
	p := NewPipeline(s, nil, nil, testLogger())

	src := frameFunc(func(context.Context) (image.Image, error) {
		return nil, apperrors.New(apperrors.ErrCapture, "camera unavailable")
	})
	_, err := p.Capture(context.Background(), src, Options{})
	if !apperrors.Is(err, apperrors.ErrCapture) {
		t.Errorf("expected capture error, got %v", err)
	}
}

func TestFileSourceDecodes(t *testing.T) {
	buf := &bytes.Buffer{}
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := imaging.Encode(buf, src, imaging.PNG); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	img, err := NewFileSource(buf).Frame(context.Background())
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("decoded width = %d, want 8", img.Bounds().Dx())
	}
}

func TestFileSourceRejectsGarbage(t *testing.T) {
	_, err := NewFileSource(bytes.NewReader([]byte("not an image"))).Frame(context.Background())
	if !apperrors.Is(err, apperrors.ErrCapture) {
		t.Errorf("expected capture error, got %v", err)
	}
}

// fakeProber returns fixed capability states.
type fakeProber struct {
	camera   CapabilityState
	location CapabilityState
}

func (f fakeProber) Camera(context.Context) CapabilityState   { return f.camera }
func (f fakeProber) Location(context.Context) CapabilityState { return f.location }

func TestSelectSource(t *testing.T) {
	ctx := context.Background()
	live := solidFrame(1, 1)
	fallback := solidFrame(2, 2)

	got, err := SelectSource(ctx, fakeProber{camera: CapabilityGranted}, live, fallback)
	if err != nil || got == nil {
		t.Fatalf("SelectSource(granted) = %v, %v", got, err)
	}
	img, _ := got.Frame(ctx)
	if img.Bounds().Dx() != 1 {
		t.Error("expected live source when camera granted")
	}

	got, err = SelectSource(ctx, fakeProber{camera: CapabilityDenied}, live, fallback)
	if err != nil {
		t.Fatalf("SelectSource(denied) errored: %v", err)
	}
	img, _ = got.Frame(ctx)
	if img.Bounds().Dx() != 2 {
		t.Error("expected fallback source when camera denied")
	}

	_, err = SelectSource(ctx, fakeProber{camera: CapabilityUnavailable}, live, nil)
	if !apperrors.Is(err, apperrors.ErrNoCapability) {
		t.Errorf("expected NO_CAPABILITY, got %v", err)
	}
}
