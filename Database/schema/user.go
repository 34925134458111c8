package schema

import (
	"database/sql"
	"fmt"

	utils "forstream/pkg/utils"
)

// CreateUserTables creates the users table.
func CreateUserTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(255) UNIQUE NOT NULL,
			google_id VARCHAR(255) NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			registration_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id);
	`
	if _, err := db.Exec(query); err != nil {
		utils.Logger.Errorf("Failed to create users table: %v", err)
		return fmt.Errorf("failed to create users table: %w", err)
	}
	utils.Logger.Info("Users table created successfully")
	return nil
}
