package crawllog

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// PostgresStore is the durable crawl record store. Records are append-only;
// nothing in the gateway ever updates or deletes one.
type PostgresStore struct {
	logger *logger.Logger

	Conn *gorm.DB
}

// NewPostgresStore connects to Postgres and migrates the crawl record table.
func NewPostgresStore(user, password, dbname, host string, port int, logger *logger.Logger) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&models.CrawlRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresStore{Conn: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// Append writes a crawl record.
func (s *PostgresStore) Append(ctx context.Context, record *models.CrawlRecord) error {
	if err := s.Conn.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append crawl record: %w", err)
	}
	return nil
}

// Recent returns the most recent crawl records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*models.CrawlRecord, error) {
	var records []*models.CrawlRecord
	if err := s.Conn.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent crawl records: %w", err)
	}
	return records, nil
}

// ByResource returns the most recent crawl records for one resource path.
func (s *PostgresStore) ByResource(ctx context.Context, path string, limit int) ([]*models.CrawlRecord, error) {
	var records []*models.CrawlRecord
	if err := s.Conn.WithContext(ctx).Where("resource_path = ?", path).
		Order("timestamp DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get crawl records by resource: %w", err)
	}
	return records, nil
}

// EarningsByResource aggregates paid crawls per resource path.
func (s *PostgresStore) EarningsByResource(ctx context.Context) ([]*models.ResourceEarnings, error) {
	var earnings []*models.ResourceEarnings
	if err := s.Conn.WithContext(ctx).Model(&models.CrawlRecord{}).
		Select("resource_path, COUNT(*) AS crawls, SUM(CAST(amount_paid AS NUMERIC)) AS total").
		Group("resource_path").
		Order("resource_path").
		Find(&earnings).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate earnings: %w", err)
	}
	return earnings, nil
}
