package app

import (
	"context"
	"io"

	"github.com/go-faster/errors"

	"github.com/xenking/marketbarrio/db"
	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/storage"
	"github.com/xenking/marketbarrio/internal/storage/file"
	"github.com/xenking/marketbarrio/internal/storage/memory"
	"github.com/xenking/marketbarrio/internal/storage/postgres"
)

// Store is a storage.Store that may hold resources.
type Store interface {
	storage.Store
	storage.Lister
	io.Closer
}

type nopCloser struct {
	storage.Store
	storage.Lister
}

func (nopCloser) Close() error { return nil }

type poolStore struct {
	*postgres.Store
	close func()
}

func (s poolStore) Close() error {
	s.close()
	return nil
}

// OpenStore opens the configured storage driver. The postgres driver runs
// the embedded migrations before returning.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		s := memory.New()
		return nopCloser{Store: s, Lister: s}, nil
	case DriverFile:
		s, err := file.New(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open file store")
		}
		return nopCloser{Store: s, Lister: s}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return poolStore{Store: postgres.NewStore(pool), close: pool.Close}, nil
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// LoadCatalog reads the catalog file, or the embedded catalog when path is
// empty.
func LoadCatalog(path string) (*product.Catalog, error) {
	if path != "" {
		return product.LoadFile(path)
	}
	products, err := product.Decode(db.Products)
	if err != nil {
		return nil, errors.Wrap(err, "decode embedded catalog")
	}
	return product.NewCatalog(products)
}

const probeKey = "health:probe"

// storeCheck pings stores that support it and otherwise performs a read.
func storeCheck(s storage.Store) func(ctx context.Context) error {
	if p, ok := s.(interface{ Ping(context.Context) error }); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		_, err := s.Get(ctx, probeKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	}
}
