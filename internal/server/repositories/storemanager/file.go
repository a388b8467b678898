package storemanager

import (
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/filestore"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
)

// FileManager serves both repositories from a single filestore.Store.
type FileManager struct {
	store *filestore.Store
}

func NewFileManager(dataDir string) (*FileManager, error) {
	store, err := filestore.New(dataDir)
	if err != nil {
		return nil, err
	}
	return &FileManager{store: store}, nil
}

func (m *FileManager) Accounts() accounts.Repository { return m.store }

func (m *FileManager) Tasks() tasks.Repository { return m.store }

func (m *FileManager) Close() error { return m.store.Close() }
