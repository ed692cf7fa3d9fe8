package oss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/pkg/timeout"
)

var (
	ErrBucketUnavailable = errors.New("存储桶不可用")
	ErrUnknownCategory   = errors.New("未知的媒体类别")
)

// Client 按媒体类别分桶的存储客户端。
// OSS SDK 的调用不认 context，全部经 timeout.Run 限定时长。
type Client struct {
	client    *oss.Client
	buckets   map[string]*oss.Bucket // category -> bucket
	cdnDomain string
	opTimeout time.Duration
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	buckets := make(map[string]*oss.Bucket)
	for category, name := range map[string]string{
		model.CategoryVideo: cfg.VideoBucket,
		model.CategoryImage: cfg.ImageBucket,
	} {
		bucket, err := client.Bucket(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get bucket %s: %w", name, err)
		}
		buckets[category] = bucket
	}

	opTimeout := time.Duration(cfg.OperationTimeoutSeconds) * time.Second
	if opTimeout <= 0 {
		opTimeout = 10 * time.Second
	}

	return &Client{
		client:    client,
		buckets:   buckets,
		cdnDomain: cfg.CDNDomain,
		opTimeout: opTimeout,
	}, nil
}

// Probe 逐桶探测可用性，每个桶独立超时。启动期调用，失败只降级不致命
func (c *Client) Probe(ctx context.Context) map[string]error {
	results := make(map[string]error, len(c.buckets))
	for category, bucket := range c.buckets {
		name := bucket.BucketName
		err := timeout.Run(ctx, c.opTimeout, func() error {
			exists, err := c.client.IsBucketExist(name)
			if err != nil {
				return err
			}
			if !exists {
				return ErrBucketUnavailable
			}
			return nil
		})
		results[category] = err
	}
	return results
}

// Upload 上传到类别对应的桶，受统一超时约束
func (c *Client) Upload(ctx context.Context, category, objectKey string, data []byte, contentType string) (string, error) {
	bucket, ok := c.buckets[category]
	if !ok {
		return "", ErrUnknownCategory
	}

	err := timeout.Run(ctx, c.opTimeout, func() error {
		return bucket.PutObject(objectKey, bytes.NewReader(data), oss.ContentType(contentType))
	})
	if err != nil {
		return "", err
	}

	return c.GetURL(category, objectKey), nil
}

// Delete 删除对象
func (c *Client) Delete(ctx context.Context, category, objectKey string) error {
	bucket, ok := c.buckets[category]
	if !ok {
		return ErrUnknownCategory
	}

	return timeout.Run(ctx, c.opTimeout, func() error {
		return bucket.DeleteObject(objectKey)
	})
}

// GetURL 获取文件访问 URL
func (c *Client) GetURL(category, objectKey string) string {
	bucket, ok := c.buckets[category]
	if !ok {
		return ""
	}
	if c.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", c.cdnDomain, objectKey)
	}
	return fmt.Sprintf("https://%s.%s/%s", bucket.BucketName, c.client.Config.Endpoint, objectKey)
}

// GetSignedURL 生成带签名的临时访问 URL（默认 1 小时有效），检测服务拉取媒体用
func (c *Client) GetSignedURL(ctx context.Context, category, objectKey string, expireSeconds int64) (string, error) {
	bucket, ok := c.buckets[category]
	if !ok {
		return "", ErrUnknownCategory
	}
	if expireSeconds <= 0 {
		expireSeconds = 3600
	}

	var signedURL string
	err := timeout.Run(ctx, c.opTimeout, func() error {
		url, err := bucket.SignURL(objectKey, oss.HTTPGet, expireSeconds)
		if err != nil {
			return err
		}
		signedURL = url
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return signedURL, nil
}

// UserMessage 把底层存储错误翻成可以直接展示给用户的文案
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, timeout.ErrTimeout) {
		return "storage is taking too long to respond, please try again"
	}
	if errors.Is(err, ErrBucketUnavailable) || errors.Is(err, ErrUnknownCategory) {
		return "storage is not available right now, please try again later"
	}

	var svcErr oss.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Code {
		case "NoSuchBucket":
			return "storage is not available right now, please try again later"
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return "storage access was denied, please contact support"
		case "RequestTimeout":
			return "storage is taking too long to respond, please try again"
		case "EntityTooLarge":
			return "the file is too large to store"
		}
	}

	if strings.Contains(err.Error(), "timeout") {
		return "storage is taking too long to respond, please try again"
	}

	return "upload failed, please try again"
}
