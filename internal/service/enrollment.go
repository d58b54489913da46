package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/attendly/faceclock/internal/audit"
	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/embedding"
	"github.com/attendly/faceclock/internal/liveness"
	"github.com/attendly/faceclock/internal/provider"
	"github.com/attendly/faceclock/internal/repository"
	"github.com/attendly/faceclock/internal/settings"
	"github.com/attendly/faceclock/internal/storage"
)

// Quality gate bounds for enrollment photos.
const (
	minFaceSide   = 80
	minBrightness = 40.0
	maxBrightness = 220.0
	minSharpness  = 0.1
	minQuality    = 0.3
	maxPoseAngle  = 30.0
)

// EnrollmentService binds an employee to a face embedding. Unlike the
// recognition path, enrollment is strict: multi-face input, low quality and
// duplicates are all hard rejections.
type EnrollmentService struct {
	identities repository.IdentityRepositoryInterface
	faces      provider.FaceProvider
	store      *embedding.Store
	dedup      *embedding.Deduplicator
	photos     storage.PhotoStore
	settings   *settings.Manager
	audit      audit.Logger
	logger     *slog.Logger
}

func NewEnrollmentService(
	identities repository.IdentityRepositoryInterface,
	faces provider.FaceProvider,
	store *embedding.Store,
	photos storage.PhotoStore,
	mgr *settings.Manager,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		identities: identities,
		faces:      faces,
		store:      store,
		dedup:      embedding.NewDeduplicator(store),
		photos:     photos,
		settings:   mgr,
		audit:      auditLogger,
		logger:     logger.With("component", "enrollment"),
	}
}

// Enroll registers imageData as employeeID's face. The photo write and the
// database transaction are kept consistent: a failed transaction removes the
// photo again.
func (s *EnrollmentService) Enroll(ctx context.Context, employeeID int64, imageData []byte) (*domain.EnrolledIdentity, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	detected, err := s.faces.DetectFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(detected) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	// Ambiguous identity binding; the recognition path tolerates bystanders
	// but enrollment must not.
	if len(detected) > 1 {
		return nil, domain.ErrMultipleFaces
	}
	face := detected[0]

	if issues := qualityIssues(img, face); len(issues) > 0 {
		_ = s.audit.Log(ctx, audit.Event{
			EventType:  audit.EventQualityRejected,
			EmployeeID: employeeID,
			Success:    false,
			Metadata:   map[string]string{"issues": fmt.Sprintf("%v", issues)},
		})
		return nil, domain.ErrLowQualityImage.WithDetails(issues...)
	}

	emb, err := s.faces.ExtractEmbedding(ctx, img, face.Box)
	if err != nil {
		return nil, fmt.Errorf("extract embedding: %w", err)
	}
	if len(emb) != domain.EmbeddingDim {
		return nil, domain.ErrInvalidEmbedding
	}
	emb = domain.Normalize(emb)

	// Scan against a fresh snapshot so an enrollment moments ago is visible.
	s.store.Invalidate()
	cfg := s.settings.Snapshot()
	conflict, found, err := s.dedup.IsDuplicate(ctx, emb, employeeID, cfg.DuplicateThreshold)
	if err != nil {
		return nil, domain.ErrPersistence.WithError(err)
	}
	if found {
		_ = s.audit.Log(ctx, audit.Event{
			EventType:  audit.EventDuplicateFaceRejected,
			EmployeeID: employeeID,
			Success:    false,
			Metadata: map[string]string{
				"conflicting_employee_id": strconv.FormatInt(conflict.EmployeeID, 10),
				"similarity":              strconv.FormatFloat(conflict.Similarity, 'f', 4, 64),
			},
		})
		return nil, domain.ErrDuplicateFace
	}

	photoRef, err := s.photos.Save(ctx, fmt.Sprintf("%d_%s.jpg", employeeID, uuid.New()), imageData)
	if err != nil {
		return nil, domain.ErrPersistence.WithError(fmt.Errorf("save photo: %w", err))
	}

	identity := &domain.EnrolledIdentity{
		EmployeeID: employeeID,
		PhotoRef:   photoRef,
		Embedding:  emb,
	}
	if err := s.identities.Enroll(ctx, identity); err != nil {
		if removeErr := s.photos.Remove(ctx, photoRef); removeErr != nil {
			s.logger.Warn("photo rollback failed", "ref", photoRef, "error", removeErr)
		}
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, domain.ErrPersistence.WithError(err)
	}

	s.store.Invalidate()

	_ = s.audit.Log(ctx, audit.Event{
		EventType:  audit.EventEnrollment,
		EmployeeID: employeeID,
		Success:    true,
		Metadata:   map[string]string{"photo_ref": photoRef},
	})
	s.logger.Info("employee enrolled", "employee_id", employeeID)

	return identity, nil
}

// Delete removes an employee's enrollment and their stored photo.
func (s *EnrollmentService) Delete(ctx context.Context, employeeID int64) error {
	identity, err := s.identities.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return err
	}

	if err := s.identities.Delete(ctx, employeeID); err != nil {
		return err
	}

	// Photo removal is best effort; the enrollment itself is already gone.
	if identity.PhotoRef != "" {
		if err := s.photos.Remove(ctx, identity.PhotoRef); err != nil {
			s.logger.Warn("photo cleanup failed", "ref", identity.PhotoRef, "error", err)
		}
	}

	s.store.Invalidate()

	_ = s.audit.Log(ctx, audit.Event{
		EventType:  audit.EventEnrollmentDeleted,
		EmployeeID: employeeID,
		Success:    true,
	})
	return nil
}

// qualityIssues returns every human-readable problem with an enrollment
// photo, so an operator can fix all of them in one retake.
func qualityIssues(img image.Image, face provider.DetectedFace) []string {
	var issues []string

	if face.Box.Dx() < minFaceSide || face.Box.Dy() < minFaceSide {
		issues = append(issues, fmt.Sprintf("face too small: move closer to the camera (minimum %dpx)", minFaceSide))
	}

	brightness := cropBrightness(img, face.Box)
	if brightness < minBrightness {
		issues = append(issues, "image too dark: improve lighting")
	} else if brightness > maxBrightness {
		issues = append(issues, "image overexposed: reduce lighting or avoid backlight")
	}

	// Blur is measured on the pixels themselves; the provider's own quality
	// estimate is a secondary signal for defects the variance cannot see.
	if liveness.Sharpness(img, face.Box) < minSharpness {
		issues = append(issues, "image too blurry: hold the camera steady")
	} else if face.Quality > 0 && face.Quality < minQuality {
		issues = append(issues, "image quality too low: retake the photo")
	}

	if face.Pose != nil {
		if abs(face.Pose.Yaw) > maxPoseAngle || abs(face.Pose.Pitch) > maxPoseAngle {
			issues = append(issues, "face not frontal: look straight at the camera")
		}
	}

	return issues
}

func cropBrightness(img image.Image, box image.Rectangle) float64 {
	crop := box.Intersect(img.Bounds())
	if crop.Empty() {
		return 0
	}

	var sum float64
	var count int
	// Sample a coarse grid; exact luminance is not needed for a gate.
	stepX := max(1, crop.Dx()/32)
	stepY := max(1, crop.Dy()/32)
	for y := crop.Min.Y; y < crop.Max.Y; y += stepY {
		for x := crop.Min.X; x < crop.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
