package storage

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const pingTimeout = 2 * time.Second

// waitForDatabase pings the database behind uri until it answers. Freshly
// started containers accept tcp connections some seconds before the server
// is able to authenticate, so connection errors are retried as well.
func waitForDatabase(t testing.TB, driverName, uri string) error {
	db, err := sql.Open(driverName, uri)
	if err != nil {
		return fmt.Errorf("open %s database: %w", driverName, err)
	}
	defer db.Close()

	attempt := 0
	ping := func() error {
		attempt++

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			t.Logf("waiting for %s (attempt %d): %v", driverName, attempt, err)
			return err
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(time.Minute))
	if err := backoff.Retry(ping, policy); err != nil {
		return fmt.Errorf("%s database not ready after %d attempts: %w", driverName, attempt, err)
	}

	return nil
}
