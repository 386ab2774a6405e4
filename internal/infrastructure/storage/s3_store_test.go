package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/storage"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
)

type object struct {
	data []byte
	mime string
	name string
}

// fakeS3 bucket en memoria con el estilo de ruta /{bucket}/{key}.
func fakeS3(t *testing.T) (*httptest.Server, map[string]object) {
	t.Helper()
	var mu sync.Mutex
	objects := map[string]object{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		key := strings.TrimPrefix(r.URL.Path, "/zatca-xml/")
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			objects[key] = object{data: body, mime: r.Header.Get("Content-Type"), name: r.Header.Get("X-Amz-Meta-Name")}
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			obj, ok := objects[key]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
				return
			}
			w.Header().Set("Content-Type", obj.mime)
			w.Header().Set("X-Amz-Meta-Name", obj.name)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(obj.data)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, objects
}

func TestS3AttachmentStore_PutGet(t *testing.T) {
	srv, objects := fakeS3(t)
	ctx := context.Background()
	store, err := storage.NewS3AttachmentStore(ctx, config.StorageConfig{
		S3Bucket: "zatca-xml", S3Region: "me-south-1", S3Endpoint: srv.URL,
		AccessKeyID: "test", SecretAccessKey: "test",
	})
	require.NoError(t, err)

	err = store.Put(ctx, &entity.Attachment{
		InvoiceID: 7, Field: entity.AttachmentSignedXML, Name: "300000000000003_20240301T103000Z_7.xml",
		Data: []byte("<Invoice/>"),
	})
	require.NoError(t, err)
	require.Contains(t, objects, "invoices/7/zatca_invoice")

	got, err := store.Get(ctx, 7, entity.AttachmentSignedXML)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("<Invoice/>"), got.Data)
	assert.Equal(t, "application/xml", got.MimeType)
	assert.Equal(t, "300000000000003_20240301T103000Z_7.xml", got.Name)

	missing, err := store.Get(ctx, 7, entity.AttachmentClearedXML)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
