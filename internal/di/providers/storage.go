package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/larderapp/larder-server/internal/config"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/media/images"
)

// ProvideImageStorage provides the recipe image storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorageWithSubdir(cfg.Storage.MediaDir, "recipes")
	if err != nil {
		return nil, fmt.Errorf("recipe image storage: %w", err)
	}

	log.Info("Image storage initialized", "media_dir", cfg.Storage.MediaDir)

	return storage, nil
}

// ProvideImageProcessor provides the image processor for recipe uploads.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storage, cfg.Server.MaxUploadBytes, log.Logger), nil
}
