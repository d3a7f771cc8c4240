package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/pkg/logger"
)

func TestNormalizeEndpoint(t *testing.T) {
	ep, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", ep)

	ep, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", ep)

	ep, err = normalizeEndpoint("", true)
	require.NoError(t, err)
	assert.Empty(t, ep)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn.test/agro/reportes/fumigaciones/Fumigacion%20final_7.pdf",
		joinURL("https://cdn.test/agro", "reportes/fumigaciones/Fumigacion final_7.pdf"))
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(context.Background(), Config{AccessKey: "a", SecretKey: "b"}, logger.Nop())
	assert.Error(t, err)
	_, err = NewS3Store(context.Background(), Config{Bucket: "agro"}, logger.Nop())
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3Store(ctx, Config{
		Endpoint: "localhost:9000", Bucket: "agro", AccessKey: "a", SecretKey: "b", UsePathStyle: true,
		PublicBaseURL: "https://files.test/agro/",
	}, logger.Nop())
	require.NoError(t, err)

	u, err := s.PublicURL(ctx, "fumigaciones/f1/img.png")
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/agro/fumigaciones/f1/img.png", u)

	s.publicBaseURL = ""
	u, err = s.PublicURL(ctx, "fumigaciones/f1/img.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/agro/fumigaciones/f1/img.png?"), u)
	assert.Contains(t, u, "X-Amz-Signature=")
}
