package schema

import (
	"database/sql"
	"fmt"

	utils "forstream/pkg/utils"
)

// CreateLiveStreamTables creates the live stream aggregate and provider
// stream tables. The connected channel reference on a provider stream is
// nullable: ended legs keep their history after a channel is disconnected.
func CreateLiveStreamTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS live_streams (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			stream_key VARCHAR(64) UNIQUE NOT NULL,
			stream_url TEXT NOT NULL,
			start_date TIMESTAMP WITH TIME ZONE,
			end_date TIMESTAMP WITH TIME ZONE,
			registration_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS live_stream_providers (
			id UUID PRIMARY KEY,
			live_stream_id UUID NOT NULL REFERENCES live_streams(id) ON DELETE CASCADE,
			connected_channel_id UUID REFERENCES connected_channels(id) ON DELETE SET NULL,
			identifier VARCHAR(50) NOT NULL,
			broadcast_id TEXT,
			stream_url TEXT,
			stream_status VARCHAR(20) NOT NULL DEFAULT 'READY',
			messages JSONB,
			enabled BOOLEAN NOT NULL DEFAULT true,
			position INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_live_streams_user_id ON live_streams(user_id);
		CREATE INDEX IF NOT EXISTS idx_live_stream_providers_live_stream_id ON live_stream_providers(live_stream_id);
		CREATE INDEX IF NOT EXISTS idx_live_stream_providers_connected_channel_id ON live_stream_providers(connected_channel_id);
	`
	if _, err := db.Exec(query); err != nil {
		utils.Logger.Errorf("Failed to create live stream tables: %v", err)
		return fmt.Errorf("failed to create live stream tables: %w", err)
	}
	utils.Logger.Info("Live stream tables created successfully")
	return nil
}
