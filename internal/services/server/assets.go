package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
)

const embeddedAssetsRoot = "web"

//go:embed web
var embeddedAssets embed.FS

// layeredFileSystem serves files from the public directory and falls back to the
// bundled explorer page for anything the directory does not provide.
type layeredFileSystem struct {
	primary  http.FileSystem
	fallback http.FileSystem
}

func newLayeredFileSystem(publicDirectory string) http.FileSystem {
	bundled, subError := fs.Sub(embeddedAssets, embeddedAssetsRoot)
	if subError != nil {
		return http.Dir(publicDirectory)
	}
	return layeredFileSystem{primary: http.Dir(publicDirectory), fallback: http.FS(bundled)}
}

func (fileSystem layeredFileSystem) Open(name string) (http.File, error) {
	file, openError := fileSystem.primary.Open(name)
	if openError == nil {
		return file, nil
	}
	if !errors.Is(openError, fs.ErrNotExist) {
		return nil, openError
	}
	return fileSystem.fallback.Open(name)
}
