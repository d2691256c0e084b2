package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
	DialectRedis  = "redis"
)

type database struct {
	db *gorm.DB
}

// New opens a gorm backed store and migrates its schema.
func New(ctx context.Context, dialect string, dsn string, config *gorm.Config) (Database, error) {
	if config == nil {
		config = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}
	db = db.WithContext(ctx)

	d := &database{
		db: db,
	}

	if dialect == DialectSQLite {
		// sqlite allows a single writer; serialize through one connection
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&DomainRecord{}); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return d, nil
}

// MySQLDSN builds a DSN from discrete connection parameters. host may carry a port.
func MySQLDSN(host, user, password, database string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "3306")
	}

	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Timeout = 10 * time.Second
	return cfg.FormatDSN()
}

func (d *database) GetSnapshot(ctx context.Context, domain string) (model.Snapshot, bool, error) {
	record := DomainRecord{}
	sql := d.db.WithContext(ctx).Where("domain = ?", domain).Take(&record)
	if sql.Error != nil {
		if errors.Is(sql.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading snapshot for %s: %w", domain, sql.Error)
	}

	snapshot, err := model.UnmarshalSnapshot(record.Records)
	if err != nil {
		return nil, false, fmt.Errorf("reading snapshot for %s: %w", domain, err)
	}
	return snapshot, true, nil
}

func (d *database) PutSnapshot(ctx context.Context, domain string, snapshot model.Snapshot) error {
	records, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	record := &DomainRecord{
		Domain:  domain,
		Records: records,
	}
	sql := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"records", "updated_at"}),
	}).Create(record)
	if sql.Error != nil {
		return fmt.Errorf("storing snapshot for %s: %w", domain, sql.Error)
	}
	return nil
}

func (d *database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
