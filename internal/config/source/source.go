// Package source fetches model files onto local disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ekisa-team/paravox/internal/config"
)

// ErrUnsupportedSource is returned for source types without a downloader.
var ErrUnsupportedSource = errors.New("unsupported model source")

// Downloader makes a model available under targetDir and returns its path.
// cached reports whether an existing copy was reused.
type Downloader interface {
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (path string, cached bool, err error)
}

// GetDownloader returns the downloader for a source type.
func GetDownloader(_ context.Context, sourceType config.SourceType) (Downloader, error) {
	switch sourceType {
	case config.SourceTypeHuggingFace:
		return NewHuggingFaceDownloader(), nil
	case config.SourceTypeLocal:
		return &LocalDownloader{}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, sourceType)
}

// EnsureModelsDirectory creates the models directory if needed.
func EnsureModelsDirectory(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return os.MkdirAll(path, 0o755)
}
