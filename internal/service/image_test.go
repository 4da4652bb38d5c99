package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageServiceStoreWithoutS3(t *testing.T) {
	svc := NewImageService(nil)

	ref, err := svc.Store(context.Background(), []byte{0x89, 0x50}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVA=", ref)
}

func TestImageServiceStoreDefaultsMimeType(t *testing.T) {
	svc := NewImageService(nil)

	ref, err := svc.Store(context.Background(), []byte{0x01}, "")
	require.NoError(t, err)
	assert.Contains(t, ref, "data:image/png;base64,")
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".webp", extensionFor("image/webp"))
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".png", extensionFor("application/octet-stream"))
}
