// Package cache implements the compiled-code cache (SPEC_FULL §4.13):
// script/module source digests map to their compiled bytecode so a second
// load of the same source skips lexing/parsing/compiling entirely. Wiring
// and dialector selection are lifted from the teacher's db/sqlite.go: a
// local sqlite file by default, or a libsql URL for a shared/remote cache,
// chosen by the same isURL prefix test.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	glebarez "github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oxhq/jsengine/internal/compiler"
)

// Entry is the persisted row for one cached compilation (spec SPEC_FULL §3
// CacheEntry addendum), shaped after the teacher's models.Stage/Apply
// rows: a primary-keyed digest, opaque payload columns, and a timestamp.
type Entry struct {
	SourceDigest string `gorm:"primaryKey;type:varchar(64)"`
	Bytecode     []byte `gorm:"type:blob;not null"`
	EngineVer    string `gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName follows the teacher's lowercase plural convention
// (models.Stage -> "stages"), in snake case for the two-word name.
func (Entry) TableName() string { return "cache_entries" }

// EngineVersion is stamped into every Entry and checked on Lookup, so a
// bytecode format change (new opcode, new wire shape) invalidates an
// on-disk cache instead of decoding garbage.
const EngineVersion = "1"

// Store wraps a gorm.DB over the cache_entries table. Disabled for eval()
// of dynamic strings (SPEC_FULL §4.13); callers doing script/module
// compilation key lookups by a realm-independent digest of the source text.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and ensures the cache_entries table exists. A plain
// file path (or ":memory:") opens a local pure-Go sqlite database via
// glebarez/sqlite; an http(s):// or libsql: URL opens a remote Turso/libsql
// database through a libsql connector wrapped in gorm.io/driver/sqlite's
// DriverName/Conn override, the way a shared compiled-code cache would be
// pointed at a team-wide cache server instead of a per-checkout file.
func Open(dsn string, debug bool) (*Store, error) {
	if !isURL(dsn) && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("cache: creating %q: %w", dir, err)
			}
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		if token := os.Getenv("JSENGINE_CACHE_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("cache: creating libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", Conn: conn, DSN: dsn})
	} else {
		dialector = glebarez.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("cache: opening %q: %w", dsn, err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("cache: migrating: %w", err)
	}

	return &Store{db: db}, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "libsql")
}

// Digest returns the cache key for source text: a SHA-256 hex digest,
// matching the teacher's BaseDigest/AfterDigest convention in models.Stage.
func Digest(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached CodeBlock for digest, if present and encoded
// by this engine version.
func (s *Store) Lookup(digest string) (*compiler.CodeBlock, bool) {
	var e Entry
	if err := s.db.First(&e, "source_digest = ?", digest).Error; err != nil {
		return nil, false
	}
	if e.EngineVer != EngineVersion {
		return nil, false
	}
	cb, err := Decode(e.Bytecode)
	if err != nil {
		return nil, false
	}
	return cb, true
}

// Put encodes cb and upserts it under digest.
func (s *Store) Put(digest string, cb *compiler.CodeBlock) error {
	b, err := Encode(cb)
	if err != nil {
		return err
	}
	e := Entry{SourceDigest: digest, Bytecode: b, EngineVer: EngineVersion}
	return s.db.Save(&e).Error
}

// Count reports how many entries are currently cached, for host-facing
// diagnostics (e.g. a CLI "cache stats" subcommand).
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&Entry{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
