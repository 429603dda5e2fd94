// Package cloudsql resolves PostgreSQL connection strings for deployments
// where the database is reached over a Cloud SQL unix socket instead of a
// DATABASE_URL.
package cloudsql

import (
	"fmt"
	"os"
	"strings"
)

// ResolveURL returns the connection string to use. An explicit URL wins;
// otherwise INSTANCE_CONNECTION_NAME plus DB_USER/DB_PASSWORD/DB_NAME
// build a unix-socket conninfo string the way Cloud Run mounts instances
// under /cloudsql.
func ResolveURL(explicitURL string) (string, error) {
	if explicitURL != "" {
		return explicitURL, nil
	}

	instance := os.Getenv("INSTANCE_CONNECTION_NAME")
	if instance == "" {
		return "", fmt.Errorf("neither DATABASE_URL nor INSTANCE_CONNECTION_NAME is set")
	}
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if user == "" || name == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	socketPath := fmt.Sprintf("/cloudsql/%s", instance)
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable", socketPath, user, password, name), nil
	}
	// IAM authentication carries no password.
	return fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", socketPath, user, name), nil
}

// Redact masks the password portion of a postgres:// URL for logging.
func Redact(connStr string) string {
	if !strings.HasPrefix(connStr, "postgresql://") && !strings.HasPrefix(connStr, "postgres://") {
		return connStr
	}
	scheme, rest, _ := strings.Cut(connStr, "://")
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return connStr
	}
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return connStr
	}
	return scheme + "://" + user + ":***@" + host
}
