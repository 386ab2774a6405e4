// Package storage guarda los XML de las facturas en S3 (o compatible: MinIO, LocalStack).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
)

var _ repository.AttachmentStore = (*S3AttachmentStore)(nil)

// S3AttachmentStore un objeto por factura y campo: invoices/{id}/{campo}.
// El nombre del archivo viaja en la metadata "name".
type S3AttachmentStore struct {
	client *s3.Client
	bucket string
}

// NewS3AttachmentStore carga la configuración AWS. Si hay access key se usan credenciales
// estáticas; si no, la cadena por defecto (variables, perfil, rol IAM).
func NewS3AttachmentStore(ctx context.Context, cfg config.StorageConfig) (*S3AttachmentStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cargar configuración AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3AttachmentStore{client: client, bucket: cfg.S3Bucket}, nil
}

func objectKey(invoiceID int64, field string) string {
	return fmt.Sprintf("invoices/%d/%s", invoiceID, field)
}

// Put sube (o reemplaza) el objeto.
func (s *S3AttachmentStore) Put(ctx context.Context, a *entity.Attachment) error {
	mime := a.MimeType
	if mime == "" {
		mime = "application/xml"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(a.InvoiceID, a.Field)),
		Body:        bytes.NewReader(a.Data),
		ContentType: aws.String(mime),
		Metadata:    map[string]string{"name": a.Name},
	})
	if err != nil {
		return fmt.Errorf("s3: subir %s: %w", objectKey(a.InvoiceID, a.Field), err)
	}
	return nil
}

// Get descarga el objeto; (nil, nil) si no existe.
func (s *S3AttachmentStore) Get(ctx context.Context, invoiceID int64, field string) (*entity.Attachment, error) {
	key := objectKey(invoiceID, field)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3: descargar %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: leer %s: %w", key, err)
	}
	a := &entity.Attachment{
		InvoiceID: invoiceID,
		Field:     field,
		Name:      out.Metadata["name"],
		MimeType:  aws.ToString(out.ContentType),
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if out.LastModified != nil {
		a.CreatedAt = *out.LastModified
	}
	return a, nil
}
