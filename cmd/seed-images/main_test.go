package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureUploader struct {
	contentType string
	body        string
}

func (u *captureUploader) Upload(_ context.Context, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.contentType, u.body = contentType, string(b)
	return "https://storage.googleapis.com/bucket/products/x.jpg", nil
}

func TestMirrorCopiesSource(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer src.Close()

	up := &captureUploader{}
	url, err := mirror(context.Background(), src.Client(), up, src.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket/products/x.jpg", url)
	assert.Equal(t, "image/jpeg", up.contentType)
	assert.Equal(t, "jpeg-bytes", up.body)
}

func TestMirrorSourceError(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer src.Close()

	_, err := mirror(context.Background(), src.Client(), &captureUploader{}, src.URL)
	require.Error(t, err)
}
