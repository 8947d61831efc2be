package db

import (
	"context"
	"testing"
)

func TestConnectSQLiteInMemory(t *testing.T) {
	database, err := Connect(DriverSQLite, "file:db_connect_test?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := database.Ping(context.Background()); err != nil {
		t.Fatalf("ping sqlite: %v", err)
	}
	if database.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", database.Driver)
	}
}

func TestConnectRejectsUnknownDriverAndEmptyDSN(t *testing.T) {
	if _, err := Connect(DriverPostgres, " ", nil); err == nil {
		t.Fatalf("expected empty dsn error")
	}
	if _, err := Connect("oracle", "dsn", nil); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestCloseNilDatabase(t *testing.T) {
	var database *Database
	if err := database.Close(); err != nil {
		t.Fatalf("expected nil close to succeed, got %v", err)
	}
}
