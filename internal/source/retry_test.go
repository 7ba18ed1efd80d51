package source

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	c := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}.withDefaults()
	assert.Equal(t, 1, c.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, c.backoff(0))
	assert.Equal(t, 400*time.Millisecond, c.backoff(2))
	assert.Equal(t, time.Second, c.backoff(5))
	assert.Equal(t, time.Second, c.backoff(80))
}

func TestWithRetry(t *testing.T) {
	transient := &pgconn.PgError{Code: "08006"}

	t.Run("recovers after transient failure", func(t *testing.T) {
		calls := 0
		got, err := withRetry(context.Background(), fastRetry, "test", func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, transient
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		_, err := withRetry(context.Background(), fastRetry, "test", func(context.Context) (int, error) {
			calls++
			return 0, transient
		})
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		calls := 0
		_, err := withRetry(context.Background(), fastRetry, "test", func(context.Context) (int, error) {
			calls++
			return 0, errors.New("syntax error")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := withRetry(ctx, fastRetry, "test", func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, transient
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestLoad_PostGISRetriesTransientError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pt, err := wkb.Marshal(geom.NewPointFlat(geom.XY, []float64{1, 2}), wkb.NDR)
	require.NoError(t, err)

	q := postgisQuery("wells", "geom", 0)
	mock.ExpectQuery(regexp.QuoteMeta(q)).WithArgs("geom").WillReturnError(&pgconn.PgError{Code: "08006"})
	mock.ExpectQuery(regexp.QuoteMeta(q)).WithArgs("geom").
		WillReturnRows(pgxmock.NewRows([]string{"st_asewkb", "props"}).AddRow(pt, []byte(`{"depth": 3}`)))

	c, err := Load(context.Background(), Spec{ID: "wells", Driver: DriverPostGIS, Table: "wells"}, Options{Pool: mock, Retry: fastRetry})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}
