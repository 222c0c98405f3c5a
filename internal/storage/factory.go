package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/murmur/internal/common"
	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/storage/badger"
)

// NewStorageManager creates the storage manager, nil when storage is disabled
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	if !config.Storage.Enabled {
		return nil, nil
	}
	if config.Storage.Badger.Path == "" {
		return nil, fmt.Errorf("storage.badger.path is required when storage is enabled")
	}
	return badger.NewManager(logger, &config.Storage.Badger)
}
