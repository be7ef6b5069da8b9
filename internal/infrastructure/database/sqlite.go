package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// ConnectSQLite opens a sqlite database in WAL mode with a busy timeout so
// the read pool does not fail while the single writer holds the lock.
func ConnectSQLite(dbName string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbName)
	return sql.Open("sqlite", dsn)
}

// OpenPools opens the read and write pools used by the repositories. The
// write pool is limited to one connection because sqlite serializes writers.
func OpenPools(dbName string, readConns int) (read *sql.DB, write *sql.DB, err error) {
	read, err = ConnectSQLite(dbName)
	if err != nil {
		return nil, nil, fmt.Errorf("open read pool: %w", err)
	}
	if readConns < 1 {
		readConns = 1
	}
	read.SetMaxOpenConns(readConns)

	write, err = ConnectSQLite(dbName)
	if err != nil {
		read.Close()
		return nil, nil, fmt.Errorf("open write pool: %w", err)
	}
	write.SetMaxOpenConns(1)

	return read, write, nil
}
