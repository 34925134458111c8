package schema

import (
	"database/sql"
	"fmt"

	utils "forstream/pkg/utils"
)

// CreateChannelTables creates the channel catalog and connected channel
// tables.
func CreateChannelTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS channels (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			identifier VARCHAR(50) UNIQUE NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			presentation_order INTEGER NOT NULL DEFAULT 0,
			required_scopes TEXT[],
			registration_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS connected_channels (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			channel_id UUID NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
			target JSONB NOT NULL,
			credentials JSONB,
			enabled BOOLEAN NOT NULL DEFAULT true,
			registration_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, channel_id)
		);

		CREATE INDEX IF NOT EXISTS idx_connected_channels_user_id ON connected_channels(user_id);
	`
	if _, err := db.Exec(query); err != nil {
		utils.Logger.Errorf("Failed to create channel tables: %v", err)
		return fmt.Errorf("failed to create channel tables: %w", err)
	}
	utils.Logger.Info("Channel tables created successfully")
	return nil
}
