package ports

import "context"

// BlobStore almacenamiento de archivos (imágenes de fumigación, reportes exportados).
// El bucket lo fija el adaptador; path es la clave del objeto.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, paths ...string) error
	PublicURL(ctx context.Context, path string) (string, error)
}
