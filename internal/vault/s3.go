package vault

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gitsnap/internal/config"
	"gitsnap/internal/snap"
)

// S3Vault stores archives in an S3 bucket under
// <prefix>/archives/<name>. Uploads go through the multipart upload
// manager so large archives stream without buffering in memory.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

var _ snap.Vault = (*S3Vault)(nil)

// NewS3Vault creates an S3 vault from config. Credentials come from the
// default AWS chain unless a static access/secret pair is configured.
func NewS3Vault(cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Vault{
		name:     cfg.Name,
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (v *S3Vault) archiveKey(name string) string {
	return path.Join(v.prefix, "archives", name)
}

// PutArchive uploads an archive. S3 puts are idempotent by key, so
// repeating a name simply overwrites the identical object.
func (v *S3Vault) PutArchive(name string, r io.Reader, size int64) error {
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.archiveKey(name)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading archive to s3: %w", err)
	}
	return nil
}

// GetArchive downloads an archive by name and writes it to w.
func (v *S3Vault) GetArchive(name string, w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.archiveKey(name)),
	})
	if err != nil {
		return fmt.Errorf("downloading archive from s3: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading archive body: %w", err)
	}
	return nil
}

// List returns the names of stored archives, sorted.
func (v *S3Vault) List() ([]string, error) {
	keyPrefix := strings.TrimSuffix(path.Join(v.prefix, "archives"), "/") + "/"

	var names []string
	paginator := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(v.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("listing archives in s3: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			names = append(names, path.Base(*obj.Key))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies the bucket is reachable.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket not accessible: %w", err)
	}
	return nil
}
