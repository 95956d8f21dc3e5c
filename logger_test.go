package cadstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// testLogger is a simple test logger that captures log messages.
type testLogger struct {
	debugs []logEntry
	infos  []logEntry
	warns  []logEntry
	errors []logEntry
}

type logEntry struct {
	msg     string
	keyvals []any
}

func (t *testLogger) Debug(msg string, keyvals ...any) {
	t.debugs = append(t.debugs, logEntry{msg: msg, keyvals: keyvals})
}

func (t *testLogger) Info(msg string, keyvals ...any) {
	t.infos = append(t.infos, logEntry{msg: msg, keyvals: keyvals})
}

func (t *testLogger) Warn(msg string, keyvals ...any) {
	t.warns = append(t.warns, logEntry{msg: msg, keyvals: keyvals})
}

func (t *testLogger) Error(msg string, keyvals ...any) {
	t.errors = append(t.errors, logEntry{msg: msg, keyvals: keyvals})
}

func TestLoggerInterface(t *testing.T) {
	logger := &testLogger{}

	SetLogger(logger)
	if GetLogger() != logger {
		t.Error("GetLogger() should return the logger set by SetLogger()")
	}

	logger.Debug("test debug", "key", "value")
	logger.Info("test info", "key", "value")
	logger.Warn("test warn", "key", "value")
	logger.Error("test error", "key", "value")

	if len(logger.debugs) != 1 {
		t.Errorf("Expected 1 debug log, got %d", len(logger.debugs))
	}
	if len(logger.infos) != 1 {
		t.Errorf("Expected 1 info log, got %d", len(logger.infos))
	}
	if len(logger.warns) != 1 {
		t.Errorf("Expected 1 warn log, got %d", len(logger.warns))
	}
	if len(logger.errors) != 1 {
		t.Errorf("Expected 1 error log, got %d", len(logger.errors))
	}

	SetLogger(nil)
	if GetLogger() == nil {
		t.Error("GetLogger() should return a no-op logger, not nil")
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := &noOpLogger{}

	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")
}

func TestDB_Exec_Logging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	logger := &testLogger{}
	cadDB := NewDBWithLogger(db, "test", 5*time.Second, logger)
	ctx := context.Background()

	t.Run("success logs debug", func(t *testing.T) {
		logger.debugs = nil
		mock.ExpectExec("INSERT INTO users").
			WithArgs("test").
			WillReturnResult(sqlmock.NewResult(1, 1))

		_, err := cadDB.Exec(ctx, "INSERT INTO users (name) VALUES ($1)", "test")
		if err != nil {
			t.Fatalf("Exec failed: %v", err)
		}

		if len(logger.debugs) == 0 {
			t.Fatal("Expected Debug log for Exec, got none")
		}
		if logger.debugs[0].msg != "Executing query" {
			t.Errorf("Expected Debug log message 'Executing query', got %q", logger.debugs[0].msg)
		}
		foundQuery := false
		for i := 0; i < len(logger.debugs[0].keyvals)-1; i += 2 {
			if logger.debugs[0].keyvals[i] == "query" {
				foundQuery = true
				if !strings.Contains(logger.debugs[0].keyvals[i+1].(string), "INSERT INTO users") {
					t.Errorf("Expected query to contain 'INSERT INTO users', got %v", logger.debugs[0].keyvals[i+1])
				}
			}
		}
		if !foundQuery {
			t.Error("Expected 'query' key in Debug log keyvals")
		}
	})

	t.Run("error logs error", func(t *testing.T) {
		logger.errors = nil
		expectedErr := errors.New("database error")
		mock.ExpectExec("INSERT INTO users").
			WithArgs("test").
			WillReturnError(expectedErr)

		_, err := cadDB.Exec(ctx, "INSERT INTO users (name) VALUES ($1)", "test")
		if err != expectedErr {
			t.Fatalf("Expected error %v, got %v", expectedErr, err)
		}

		if len(logger.errors) == 0 {
			t.Fatal("Expected Error log for Exec failure, got none")
		}
		if logger.errors[0].msg != "Query execution failed" {
			t.Errorf("Expected Error log message 'Query execution failed', got %q", logger.errors[0].msg)
		}
	})
}

func TestDB_QueryAll_Logging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	logger := &testLogger{}
	cadDB := NewDBWithLogger(db, "test", 5*time.Second, logger)
	ctx := context.Background()

	t.Run("success logs debug", func(t *testing.T) {
		logger.debugs = nil
		rows := sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "Alice").
			AddRow(2, "Bob")
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(rows)

		_, err := cadDB.QueryAll(ctx, "SELECT id, name FROM users")
		if err != nil {
			t.Fatalf("QueryAll failed: %v", err)
		}

		if len(logger.debugs) == 0 {
			t.Fatal("Expected Debug log for QueryAll, got none")
		}
		if logger.debugs[0].msg != "Querying all rows" {
			t.Errorf("Expected Debug log message 'Querying all rows', got %q", logger.debugs[0].msg)
		}
	})

	t.Run("error logs error", func(t *testing.T) {
		logger.errors = nil
		expectedErr := errors.New("query error")
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnError(expectedErr)

		_, err := cadDB.QueryAll(ctx, "SELECT id, name FROM users")
		if err != expectedErr {
			t.Fatalf("Expected error %v, got %v", expectedErr, err)
		}

		if len(logger.errors) == 0 {
			t.Fatal("Expected Error log for QueryAll failure, got none")
		}
		if logger.errors[0].msg != "Query failed" {
			t.Errorf("Expected Error log message 'Query failed', got %q", logger.errors[0].msg)
		}
	})
}

func TestDB_Begin_Logging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	logger := &testLogger{}
	cadDB := NewDBWithLogger(db, "test", 5*time.Second, logger)
	ctx := context.Background()

	t.Run("success logs debug", func(t *testing.T) {
		logger.debugs = nil
		mock.ExpectBegin()

		tx, err := cadDB.Begin(ctx, nil)
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		if tx == nil {
			t.Fatal("Expected transaction, got nil")
		}

		if len(logger.debugs) == 0 {
			t.Fatal("Expected Debug log for Begin, got none")
		}
		if logger.debugs[0].msg != "Beginning transaction" {
			t.Errorf("Expected Debug log message 'Beginning transaction', got %q", logger.debugs[0].msg)
		}
	})

	t.Run("error logs error", func(t *testing.T) {
		logger.errors = nil
		expectedErr := errors.New("begin error")
		mock.ExpectBegin().WillReturnError(expectedErr)

		_, err := cadDB.Begin(ctx, nil)
		if err != expectedErr {
			t.Fatalf("Expected error %v, got %v", expectedErr, err)
		}

		if len(logger.errors) == 0 {
			t.Fatal("Expected Error log for Begin failure, got none")
		}
		if logger.errors[0].msg != "Failed to begin transaction" {
			t.Errorf("Expected Error log message 'Failed to begin transaction', got %q", logger.errors[0].msg)
		}
	})
}

func TestTx_Commit_Logging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	logger := &testLogger{}

	mock.ExpectBegin()
	mockTx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	cadTx := &Tx{
		tx:      mockTx,
		timeout: 5 * time.Second,
		logger:  logger,
	}

	t.Run("success logs info", func(t *testing.T) {
		logger.infos = nil
		mock.ExpectCommit()

		err := cadTx.Commit()
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		if len(logger.infos) == 0 {
			t.Fatal("Expected Info log for Commit, got none")
		}
		if logger.infos[0].msg != "Committing transaction" {
			t.Errorf("Expected Info log message 'Committing transaction', got %q", logger.infos[0].msg)
		}
	})

	t.Run("error logs error", func(t *testing.T) {
		mock.ExpectBegin()
		mockTx2, err := db.Begin()
		if err != nil {
			t.Fatalf("Failed to begin transaction: %v", err)
		}
		cadTx2 := &Tx{
			tx:      mockTx2,
			timeout: 5 * time.Second,
			logger:  logger,
		}

		logger.errors = nil
		expectedErr := errors.New("commit error")
		mock.ExpectCommit().WillReturnError(expectedErr)

		err = cadTx2.Commit()
		if err != expectedErr {
			t.Fatalf("Expected error %v, got %v", expectedErr, err)
		}

		if len(logger.errors) == 0 {
			t.Fatal("Expected Error log for Commit failure, got none")
		}
		if logger.errors[0].msg != "Transaction commit failed" {
			t.Errorf("Expected Error log message 'Transaction commit failed', got %q", logger.errors[0].msg)
		}
	})
}

func TestTx_Rollback_Logging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	logger := &testLogger{}

	mock.ExpectBegin()
	mockTx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	cadTx := &Tx{
		tx:      mockTx,
		timeout: 5 * time.Second,
		logger:  logger,
	}

	t.Run("success logs info", func(t *testing.T) {
		logger.infos = nil
		mock.ExpectRollback()

		err := cadTx.Rollback()
		if err != nil {
			t.Fatalf("Rollback failed: %v", err)
		}

		if len(logger.infos) == 0 {
			t.Fatal("Expected Info log for Rollback, got none")
		}
		if logger.infos[0].msg != "Rolling back transaction" {
			t.Errorf("Expected Info log message 'Rolling back transaction', got %q", logger.infos[0].msg)
		}
	})
}

func TestDB_Close_Logging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	logger := &testLogger{}
	cadDB := NewDBWithLogger(db, "test", 5*time.Second, logger)

	t.Run("success logs info", func(t *testing.T) {
		logger.infos = nil
		mock.ExpectClose()

		err := cadDB.Close()
		if err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		if len(logger.infos) == 0 {
			t.Fatal("Expected Info log for Close, got none")
		}
		if logger.infos[0].msg != "Closing database connection" {
			t.Errorf("Expected Info log message 'Closing database connection', got %q", logger.infos[0].msg)
		}
	})
}

func TestPerInstanceLogger(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer db.Close()

	globalLogger := &testLogger{}
	instanceLogger := &testLogger{}

	SetLogger(globalLogger)

	cadDB := NewDBWithLogger(db, "test", 5*time.Second, instanceLogger)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("test").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err = cadDB.Exec(ctx, "INSERT INTO users (name) VALUES ($1)", "test")
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	if len(instanceLogger.debugs) == 0 {
		t.Error("Expected instance logger to receive Debug log")
	}
	if len(globalLogger.debugs) != 0 {
		t.Error("Expected global logger to NOT receive log when per-instance logger is set")
	}
}
