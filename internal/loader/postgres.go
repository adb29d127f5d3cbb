package loader

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

const postgresBatchSize = 500

// Record is one collection entry stored as jsonb.
type Record struct {
	Collection string    `gorm:"column:collection;primaryKey;type:varchar(32)"`
	Branch     string    `gorm:"column:branch;primaryKey;type:varchar(2)"`
	Service    string    `gorm:"column:service;primaryKey;type:varchar(2)"`
	Key        string    `gorm:"column:key;primaryKey;type:varchar(128)"`
	Body       string    `gorm:"column:body;type:jsonb;not null"`
	LoadedAt   time.Time `gorm:"column:loaded_at;not null"`
}

// TableName implements gorm's tabler.
func (Record) TableName() string {
	return "collection_documents"
}

// NewRecord converts a document into a row.
func NewRecord(d Document, now time.Time) Record {
	return Record{
		Collection: string(d.Kind),
		Branch:     d.Branch,
		Service:    d.Service,
		Key:        d.Key,
		Body:       string(d.Body),
		LoadedAt:   now,
	}
}

// Postgres upserts collections into a single jsonb table.
type Postgres struct {
	db     *gorm.DB
	logger *zerolog.Logger
}

// OpenPostgres connects to dsn and migrates the documents table.
func OpenPostgres(dsn string, logger *zerolog.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.WrapTransport("postgres", "connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.WrapTransport("postgres", "connect", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewPostgres(db, logger)
}

// NewPostgres wraps an open connection and migrates the documents table.
func NewPostgres(db *gorm.DB, logger *zerolog.Logger) (*Postgres, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, errors.WrapStorage("migrate", Record{}.TableName(), err)
	}
	return &Postgres{db: db, logger: logging.OrNop(logger)}, nil
}

// Name implements ingest.Loader.
func (p *Postgres) Name() string {
	return "postgres"
}

// Load implements ingest.Loader. Rows are replaced by primary key.
func (p *Postgres) Load(ctx context.Context, st *store.Store) error {
	docs, err := Documents(st)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]Record, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, NewRecord(d, now))
	}

	err = p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "branch"}, {Name: "service"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "loaded_at"}),
		}).
		CreateInBatches(rows, postgresBatchSize).Error
	if err != nil {
		return errors.WrapStorage("upsert", Record{}.TableName(), err)
	}

	p.logger.Info().Int("rows", len(rows)).Msg("Loaded collections into PostgreSQL")
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
