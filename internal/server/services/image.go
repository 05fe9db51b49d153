package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pixvault/internal/common"
	"pixvault/internal/logging"
	sc "pixvault/internal/server/config"
	"pixvault/internal/server/models"
	"pixvault/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ImageView is the response shape for an image record.
type ImageView struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	FileName  string     `json:"file_name"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func toImageView(img *models.Image) *ImageView {
	return &ImageView{
		ID:        img.ID,
		UserID:    img.UserID,
		FileName:  img.FileName,
		URL:       img.URL,
		CreatedAt: img.CreatedAt,
		DeletedAt: img.DeletedAt,
	}
}

func toImageViews(imgs []*models.Image) []*ImageView {
	views := make([]*ImageView, 0, len(imgs))
	for _, img := range imgs {
		views = append(views, toImageView(img))
	}
	return views
}

// ImageService drives the image lifecycle: upload into object storage,
// active/trash listings, soft delete, restore, presigned access URLs, and
// the retention purge of old soft-deleted images.
type ImageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewImageService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *ImageService {
	return &ImageService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "image_service"),
	}
}

// makeStorageKey derives a collision-free object key from a random hex
// suffix, keeping only the extension of the user-supplied name. The original
// name never reaches the storage backend.
func makeStorageKey(fileName string) (string, error) {
	suffix, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	d := timeNow()
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("images/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), suffix, ext), nil
}

func (s *ImageService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey, // MINIO_ROOT_USER
			s.config.S3SecretKey, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// objectURL resolves the stable access locator stored with the record.
func (s *ImageService) objectURL(key string) string {
	base := s.config.S3PublicEndpoint
	if base == "" {
		base = s.config.S3BaseEndpoint
	}
	return strings.TrimRight(base, "/") + "/" + s.config.S3Bucket + "/" + key
}

// Upload writes the content to object storage under a generated key and,
// only after the write succeeds, creates the Active image record. A failed
// storage write leaves no partial state.
func (s *ImageService) Upload(ctx context.Context, userID, fileName string, content io.Reader) (*ImageView, error) {
	client, err := s.getS3Client()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageWrite, err)
	}

	bucket := s.config.S3Bucket
	key, err := makeStorageKey(fileName)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   content,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageWrite, err)
	}

	image := &models.Image{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  key,
		URL:       s.objectURL(key),
		CreatedAt: timeNow(),
	}

	created, err := s.repomanager.Images(s.db).Create(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("error creating image record: %w", err)
	}

	return toImageView(created), nil
}

// ListActive returns the non-deleted images owned by the user.
func (s *ImageService) ListActive(ctx context.Context, userID string) ([]*ImageView, error) {
	images, err := s.repomanager.Images(s.db).SelectActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toImageViews(images), nil
}

// ListDeleted returns the soft-deleted images owned by the user (the
// "trash" view).
func (s *ImageService) ListDeleted(ctx context.Context, userID string) ([]*ImageView, error) {
	images, err := s.repomanager.Images(s.db).SelectDeletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toImageViews(images), nil
}

// SoftDelete marks the image deleted and stamps the deletion time. Deleting
// an already-deleted image is not an error.
func (s *ImageService) SoftDelete(ctx context.Context, imageID string) (bool, error) {
	deleted, err := s.repomanager.Images(s.db).SoftDelete(ctx, imageID, timeNow())
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, common.ErrorNotFound
	}
	return true, nil
}

// Restore brings a soft-deleted image back to Active. Restoring an image
// that is not soft-deleted is rejected.
func (s *ImageService) Restore(ctx context.Context, imageID string) error {
	repo := s.repomanager.Images(s.db)

	image, err := repo.GetByID(ctx, imageID)
	if err != nil {
		return err
	}

	if !image.IsDeleted {
		return common.ErrorInvalidState
	}

	return repo.Restore(ctx, imageID)
}

// SignedURL asks the storage backend for a time-limited GET URL for the
// given object key. When the backend is self-hosted, the internal hostname
// in the signed URL is substituted with the configured public endpoint.
func (s *ImageService) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	client, err := s.getS3Client()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigning, err)
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigning, err)
	}

	return s.rewriteSignedURL(req.URL)
}

// rewriteSignedURL swaps the host of a presigned URL for the configured
// public endpoint. AWS-hosted URLs are already reachable and pass through
// unmodified, as does everything when no public endpoint is configured.
func (s *ImageService) rewriteSignedURL(signed string) (string, error) {
	if s.config.S3PublicEndpoint == "" {
		return signed, nil
	}

	u, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigning, err)
	}
	if strings.HasSuffix(u.Hostname(), ".amazonaws.com") {
		return signed, nil
	}

	public, err := url.Parse(s.config.S3PublicEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigning, err)
	}

	u.Scheme = public.Scheme
	u.Host = public.Host

	return u.String(), nil
}

// SweepOldDeleted purges soft-deleted images whose deletion is older than
// the retention window: the storage object goes first, then the record.
// A storage failure is logged and the record kept, so the image is retried
// on the next sweep. Returns the number of images fully purged.
func (s *ImageService) SweepOldDeleted(ctx context.Context) (int, error) {
	repo := s.repomanager.Images(s.db)

	cutoff := timeNow().AddDate(0, 0, -s.config.ImageRetentionDays)
	old, err := repo.SelectDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(old) == 0 {
		return 0, nil
	}

	client, err := s.getS3Client()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorStorageDelete, err)
	}

	bucket := s.config.S3Bucket
	purged := 0

	for _, image := range old {
		if _, err := deleteObject(client, ctx, &s3.DeleteObjectInput{
			Bucket: &bucket,
			Key:    &image.FileName,
		}); err != nil {
			s.logger.Error(ctx, "failed to delete storage object, keeping record for retry",
				"image_id", image.ID, "key", image.FileName, "error", err)
			continue
		}

		if err := repo.HardDelete(ctx, image.ID); err != nil {
			s.logger.Error(ctx, "failed to delete image record",
				"image_id", image.ID, "error", err)
			continue
		}

		purged++
	}

	return purged, nil
}
