package store

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/model"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Option defines connection options for the audit database.
type Option struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
	Config     *gorm.Config
}

// Store persists the audit trail: terminal orders, fills and closed
// positions. The ledger never reads valuation back from here.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the audit tables.
func Open(opt Option) (*Store, error) {
	config := opt.Config
	if config == nil {
		config = &gorm.Config{}
	}
	db, err := gorm.Open(postgres.Open(opt.dsn()), config)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&OrderRecord{}, &FillRecord{}, &ClosedPositionRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// SaveOrder upserts an order's latest state.
func (s *Store) SaveOrder(order model.Order) error {
	if s == nil {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(orderRecord(order)).Error
}

// SaveFill appends a fill record. Duplicate trade ids are ignored so
// journal replays stay idempotent at the store too.
func (s *Store) SaveFill(fill model.Fill) error {
	if s == nil {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_id"}},
		DoNothing: true,
	}).Create(fillRecord(fill)).Error
}

// ArchiveClosedPosition stores a completed round trip.
func (s *Store) ArchiveClosedPosition(closed model.ClosedPosition) error {
	if s == nil {
		return nil
	}
	return s.db.Create(closedPositionRecord(closed)).Error
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() string {
	if opt.ConnString != "" {
		return opt.ConnString
	}

	host := opt.Host
	if host == "" {
		host = defaultHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}
	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()
	return u.String()
}
