package source

import (
	"context"
	"fmt"
	"os"

	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/xfs"
)

// LocalDownloader resolves models that already live on disk.
type LocalDownloader struct{}

// Download checks the configured path exists and returns it unchanged.
func (d *LocalDownloader) Download(_ context.Context, modelConfig *config.ModelConfig, _ string) (string, bool, error) {
	src, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	local, ok := src.(config.LocalSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", src)
	}

	path := xfs.ExpandTilde(local.Path)
	if _, err := os.Stat(path); err != nil {
		return "", false, fmt.Errorf("local model not found: %w", err)
	}

	return path, true, nil
}
