package s3

import (
	"fmt"
	"io"
	"path"
	"strings"

	"blogsphere/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// allowedImageTypes maps accepted upload content types to file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Client struct {
	s3Client s3iface.S3API
	bucket   string
	endpoint string
	region   string
	useSSL   bool
}

func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	}

	// Support MinIO for local development
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := newClient(s3.New(sess), cfg)

	// Ensure bucket exists (for MinIO)
	if _, err := client.s3Client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(client.bucket),
	}); err != nil {
		// an "already owned" error here just means another service won the race
		_, _ = client.s3Client.CreateBucket(&s3.CreateBucketInput{
			Bucket: aws.String(client.bucket),
		})
	}

	return client, nil
}

func newClient(api s3iface.S3API, cfg *config.Config) *Client {
	return &Client{
		s3Client: api,
		bucket:   cfg.S3BucketName,
		endpoint: cfg.AWSEndpoint,
		region:   cfg.AWSRegion,
		useSSL:   cfg.S3UseSSL != "false",
	}
}

// ImageKey builds the object key for an upload owned by userID. It rejects
// content types that are not images.
func ImageKey(userID, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	return path.Join("posts", userID, uuid.New().String()+ext), nil
}

func (c *Client) UploadFile(key string, file io.ReadSeeker, contentType string) (string, error) {
	_, err := c.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return c.URL(key), nil
}

// URL returns the public address of key, path-style for MinIO endpoints and
// virtual-hosted style for AWS.
func (c *Client) URL(key string) string {
	if c.endpoint != "" && !strings.Contains(c.endpoint, "amazonaws.com") {
		protocol := "http"
		if c.useSSL {
			protocol = "https"
		}
		endpoint := strings.TrimPrefix(c.endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, c.bucket, key)
	}

	region := c.region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, region, key)
}

func (c *Client) DeleteFile(key string) error {
	_, err := c.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
