package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/lifetest/internal/config"
	"github.com/HendryAvila/lifetest/internal/report"
)

type fakeRepo struct {
	report.Repository
	closed bool
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestNew_SQLite(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)

	assert.NotNil(t, a.Catalog)
	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.Renderer)
	assert.Same(t, a.Drafts, a.Reports)
	assert.FileExists(t, filepath.Join(a.Config.DataDir, "lifetest.db"))
	assert.NoError(t, a.Close())
}

func TestNew_Firestore(t *testing.T) {
	fake := &fakeRepo{}
	orig := openFirestore
	openFirestore = func(ctx context.Context, cfg config.FirebaseConfig) (report.Repository, error) {
		assert.Equal(t, "proj", cfg.ProjectID)
		return fake, nil
	}
	defer func() { openFirestore = orig }()

	cfg := testConfig(t)
	cfg.Store = config.StoreFirestore
	cfg.Firebase.ProjectID = "proj"

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Same(t, fake, a.Reports)
	require.NoError(t, a.Close())
	assert.True(t, fake.closed)
}

func TestNew_FirestoreFailure(t *testing.T) {
	orig := openFirestore
	openFirestore = func(ctx context.Context, cfg config.FirebaseConfig) (report.Repository, error) {
		return nil, errors.New("no credentials")
	}
	defer func() { openFirestore = orig }()

	cfg := testConfig(t)
	cfg.Store = config.StoreFirestore
	cfg.Firebase.ProjectID = "proj"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "no credentials")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "mysql"
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "invalid config")
}

func TestNew_BrokenCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogPath = filepath.Join(cfg.DataDir, "catalog.yaml")
	require.NoError(t, os.WriteFile(cfg.CatalogPath, []byte("sections: []\n"), 0o644))

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "loading catalog")
}
