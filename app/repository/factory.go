package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Options configures the repository set.
type Options struct {
	// InspectionDB points at the inspection store. Nil means the primary DB.
	InspectionDB *gorm.DB
	// LookupBatchSize bounds keys per batched lookup. <= 0 means DefaultLookupBatchSize.
	LookupBatchSize int
}

// Repositories struct holds all repository instances
type Repositories struct {
	Plan        PlanRepository
	Certificate CertificateRepository
	Inspection  InspectionRepository

	db   *gorm.DB
	opts Options
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB, opts Options) *Repositories {
	if opts.InspectionDB == nil {
		opts.InspectionDB = db
	}
	if opts.LookupBatchSize <= 0 {
		opts.LookupBatchSize = DefaultLookupBatchSize
	}
	return &Repositories{
		Plan:        NewPlanRepository(db),
		Certificate: NewCertificateRepository(db, opts.LookupBatchSize),
		Inspection:  NewInspectionRepository(opts.InspectionDB, opts.LookupBatchSize),
		db:          db,
		opts:        opts,
	}
}

// Transaction runs fn with plan and certificate repositories bound to one
// transaction on the primary DB. The inspection repository is shared since it
// may live in another database.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repositories{
			Plan:        NewPlanRepository(tx),
			Certificate: NewCertificateRepository(tx, r.opts.LookupBatchSize),
			Inspection:  r.Inspection,
			db:          tx,
			opts:        r.opts,
		})
	})
}

// LookupBatchSize returns the configured batch size for batched lookups.
func (r *Repositories) LookupBatchSize() int {
	return r.opts.LookupBatchSize
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	opts  Options
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{
		db:   db,
		opts: opts,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db, f.opts)
	})
	return f.repos
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB, opts Options) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db, opts)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
