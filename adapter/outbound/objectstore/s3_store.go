package objectstore

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

const sourceMachineMetadataKey = "source-machine"

// S3Options is the subset of configuration the S3 store needs
type S3Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Store uploads files to an S3-compatible bucket
type S3Store struct {
	uploader  *manager.Uploader
	bucket    string
	machineID string
}

// NewS3Store builds a client from opts. Static credentials are used when an
// access key is configured, otherwise the SDK default chain applies.
func NewS3Store(ctx context.Context, opts S3Options, machine outbound.MachineIDService, logger outbound.Logger) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	machineID := ""
	if machine != nil {
		id, err := machine.GetMachineID()
		if err != nil {
			logger.Warn("Machine ID unavailable, uploads will not be tagged", "error", err)
		} else {
			machineID = id
		}
	}

	return newS3Store(client, opts.Bucket, machineID), nil
}

func newS3Store(client manager.UploadAPIClient, bucket, machineID string) *S3Store {
	return &S3Store{
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		machineID: machineID,
	}
}

func (s *S3Store) Upload(ctx context.Context, task model.UploadTask) (int64, error) {
	f, err := os.Open(task.SourcePath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", task.SourcePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", task.SourcePath, err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(task.DestinationKey),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(task.SourcePath)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if s.machineID != "" {
		input.Metadata = map[string]string{sourceMachineMetadataKey: s.machineID}
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return 0, fmt.Errorf("put s3://%s/%s: %w", s.bucket, task.DestinationKey, err)
	}

	return info.Size(), nil
}
