package livestream

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"forstream/internal/channel"
	"forstream/internal/platform"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type LiveStreamStoreImpl struct {
	db *sql.DB
}

func NewLiveStreamStore(db *sql.DB) *LiveStreamStoreImpl {
	return &LiveStreamStoreImpl{db: db}
}

func (ls *LiveStreamStoreImpl) CreateLiveStream(liveStream *LiveStream) error {
	if liveStream.RegistrationDate.IsZero() {
		liveStream.RegistrationDate = time.Now()
	}

	tx, err := ls.db.Begin()
	if err != nil {
		utils.Logger.Errorf("Error starting transaction: %v", err)
		return fmt.Errorf("database error")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO live_streams (id, user_id, title, description, stream_key, stream_url, start_date, end_date, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(query,
		liveStream.ID, liveStream.UserID, liveStream.Title, liveStream.Description,
		liveStream.StreamKey, liveStream.StreamURL, liveStream.StartDate, liveStream.EndDate,
		liveStream.RegistrationDate,
	)
	if err != nil {
		utils.Logger.Errorf("Error creating live stream: %v", err)
		return fmt.Errorf("failed to create live stream")
	}

	for _, providerStream := range liveStream.Providers {
		if err := upsertProviderStream(tx, liveStream.ID, providerStream); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		utils.Logger.Errorf("Error committing live stream creation: %v", err)
		return fmt.Errorf("database error")
	}
	return nil
}

func (ls *LiveStreamStoreImpl) UpdateLiveStream(liveStream *LiveStream) error {
	tx, err := ls.db.Begin()
	if err != nil {
		utils.Logger.Errorf("Error starting transaction: %v", err)
		return fmt.Errorf("database error")
	}
	defer tx.Rollback()

	query := `
		UPDATE live_streams
		SET title = $1, description = $2, start_date = $3, end_date = $4
		WHERE id = $5
	`
	result, err := tx.Exec(query,
		liveStream.Title, liveStream.Description, liveStream.StartDate, liveStream.EndDate,
		liveStream.ID,
	)
	if err != nil {
		utils.Logger.Errorf("Error updating live stream: %v", err)
		return fmt.Errorf("failed to update live stream")
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("live stream not found")
	}

	for _, providerStream := range liveStream.Providers {
		if err := upsertProviderStream(tx, liveStream.ID, providerStream); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		utils.Logger.Errorf("Error committing live stream update: %v", err)
		return fmt.Errorf("database error")
	}
	return nil
}

func upsertProviderStream(tx *sql.Tx, liveStreamID uuid.UUID, providerStream *ProviderStream) error {
	providerStream.LiveStreamID = liveStreamID

	var messages []byte
	if len(providerStream.Messages) > 0 {
		encoded, err := json.Marshal(providerStream.Messages)
		if err != nil {
			utils.Logger.Errorf("Error marshaling provider stream messages: %v", err)
			return fmt.Errorf("failed to encode provider stream")
		}
		messages = encoded
	}

	query := `
		INSERT INTO live_stream_providers (id, live_stream_id, connected_channel_id, identifier, broadcast_id, stream_url, stream_status, messages, enabled, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET connected_channel_id = EXCLUDED.connected_channel_id,
		    broadcast_id = EXCLUDED.broadcast_id,
		    stream_url = EXCLUDED.stream_url,
		    stream_status = EXCLUDED.stream_status,
		    messages = EXCLUDED.messages,
		    enabled = EXCLUDED.enabled,
		    position = EXCLUDED.position
	`
	_, err := tx.Exec(query,
		providerStream.ID, liveStreamID, providerStream.ConnectedChannelID, providerStream.Identifier,
		providerStream.BroadcastID, providerStream.StreamURL, providerStream.Status, messages,
		providerStream.Enabled, providerStream.Position,
	)
	if err != nil {
		utils.Logger.Errorf("Error upserting provider stream: %v", err)
		return fmt.Errorf("failed to save provider stream")
	}
	return nil
}

func (ls *LiveStreamStoreImpl) GetLiveStreamByID(id uuid.UUID) (*LiveStream, error) {
	liveStream := &LiveStream{}
	query := `
		SELECT id, user_id, title, description, stream_key, stream_url, start_date, end_date, registration_date
		FROM live_streams WHERE id = $1
	`
	row := ls.db.QueryRow(query, id)
	err := row.Scan(
		&liveStream.ID, &liveStream.UserID, &liveStream.Title, &liveStream.Description,
		&liveStream.StreamKey, &liveStream.StreamURL, &liveStream.StartDate, &liveStream.EndDate,
		&liveStream.RegistrationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		utils.Logger.Errorf("Error scanning live stream by ID: %v", err)
		return nil, fmt.Errorf("database error")
	}

	if err := ls.loadProviderStreams(liveStream); err != nil {
		return nil, err
	}
	return liveStream, nil
}

func (ls *LiveStreamStoreImpl) GetLiveStreamsByUserID(userID uuid.UUID) ([]*LiveStream, error) {
	query := `
		SELECT id, user_id, title, description, stream_key, stream_url, start_date, end_date, registration_date
		FROM live_streams WHERE user_id = $1
		ORDER BY registration_date DESC
	`
	return ls.queryLiveStreams(query, userID)
}

func (ls *LiveStreamStoreImpl) GetLiveStreamsByConnectedChannelID(connectedChannelID uuid.UUID) ([]*LiveStream, error) {
	query := `
		SELECT DISTINCT s.id, s.user_id, s.title, s.description, s.stream_key, s.stream_url, s.start_date, s.end_date, s.registration_date
		FROM live_streams s
		JOIN live_stream_providers p ON p.live_stream_id = s.id
		WHERE p.connected_channel_id = $1
		ORDER BY s.registration_date DESC
	`
	return ls.queryLiveStreams(query, connectedChannelID)
}

func (ls *LiveStreamStoreImpl) queryLiveStreams(query string, args ...interface{}) ([]*LiveStream, error) {
	rows, err := ls.db.Query(query, args...)
	if err != nil {
		utils.Logger.Errorf("Error querying live streams: %v", err)
		return nil, fmt.Errorf("database error")
	}
	defer rows.Close()

	var liveStreams []*LiveStream
	for rows.Next() {
		liveStream := &LiveStream{}
		err := rows.Scan(
			&liveStream.ID, &liveStream.UserID, &liveStream.Title, &liveStream.Description,
			&liveStream.StreamKey, &liveStream.StreamURL, &liveStream.StartDate, &liveStream.EndDate,
			&liveStream.RegistrationDate,
		)
		if err != nil {
			utils.Logger.Errorf("Error scanning live stream: %v", err)
			return nil, fmt.Errorf("database error")
		}
		liveStreams = append(liveStreams, liveStream)
	}

	for _, liveStream := range liveStreams {
		if err := ls.loadProviderStreams(liveStream); err != nil {
			return nil, err
		}
	}
	return liveStreams, nil
}

func (ls *LiveStreamStoreImpl) loadProviderStreams(liveStream *LiveStream) error {
	query := `
		SELECT p.id, p.connected_channel_id, p.identifier, p.broadcast_id, p.stream_url, p.stream_status, p.messages, p.enabled, p.position,
		       cc.id, cc.user_id, cc.channel_id, cc.target, cc.credentials, cc.enabled, cc.registration_date,
		       c.id, c.name, c.identifier, c.image_url, c.presentation_order, c.required_scopes, c.registration_date
		FROM live_stream_providers p
		LEFT JOIN connected_channels cc ON cc.id = p.connected_channel_id
		LEFT JOIN channels c ON c.id = cc.channel_id
		WHERE p.live_stream_id = $1
		ORDER BY p.position ASC
	`
	rows, err := ls.db.Query(query, liveStream.ID)
	if err != nil {
		utils.Logger.Errorf("Error querying provider streams: %v", err)
		return fmt.Errorf("database error")
	}
	defer rows.Close()

	liveStream.Providers = nil
	for rows.Next() {
		providerStream := &ProviderStream{LiveStreamID: liveStream.ID}
		var (
			connectedChannelID uuid.NullUUID
			messages           []byte

			ccID               uuid.NullUUID
			ccUserID           uuid.NullUUID
			ccChannelID        uuid.NullUUID
			ccTarget           []byte
			ccCredentials      []byte
			ccEnabled          sql.NullBool
			ccRegistrationDate sql.NullTime

			chID                uuid.NullUUID
			chName              sql.NullString
			chIdentifier        sql.NullString
			chImageURL          sql.NullString
			chPresentationOrder sql.NullInt64
			chScopes            []string
			chRegistrationDate  sql.NullTime
		)
		err := rows.Scan(
			&providerStream.ID, &connectedChannelID, &providerStream.Identifier,
			&providerStream.BroadcastID, &providerStream.StreamURL, &providerStream.Status,
			&messages, &providerStream.Enabled, &providerStream.Position,
			&ccID, &ccUserID, &ccChannelID, &ccTarget, &ccCredentials, &ccEnabled, &ccRegistrationDate,
			&chID, &chName, &chIdentifier, &chImageURL, &chPresentationOrder, pq.Array(&chScopes), &chRegistrationDate,
		)
		if err != nil {
			utils.Logger.Errorf("Error scanning provider stream: %v", err)
			return fmt.Errorf("database error")
		}

		if connectedChannelID.Valid {
			providerStream.ConnectedChannelID = &connectedChannelID.UUID
		}
		if len(messages) > 0 {
			if err := json.Unmarshal(messages, &providerStream.Messages); err != nil {
				utils.Logger.Errorf("Error unmarshaling provider stream messages: %v", err)
				return fmt.Errorf("database error")
			}
		}
		if ccID.Valid {
			connectedChannel := &channel.ConnectedChannel{
				ID:               ccID.UUID,
				UserID:           ccUserID.UUID,
				ChannelID:        ccChannelID.UUID,
				Enabled:          ccEnabled.Bool,
				RegistrationDate: ccRegistrationDate.Time,
				Channel: &channel.Channel{
					ID:                chID.UUID,
					Name:              chName.String,
					Identifier:        platform.Identifier(chIdentifier.String),
					ImageURL:          chImageURL.String,
					PresentationOrder: int(chPresentationOrder.Int64),
					RequiredScopes:    chScopes,
					RegistrationDate:  chRegistrationDate.Time,
				},
			}
			if err := json.Unmarshal(ccTarget, &connectedChannel.Target); err != nil {
				utils.Logger.Errorf("Error unmarshaling connected channel target: %v", err)
				return fmt.Errorf("database error")
			}
			if len(ccCredentials) > 0 {
				connectedChannel.Credentials = &platform.Credentials{}
				if err := json.Unmarshal(ccCredentials, connectedChannel.Credentials); err != nil {
					utils.Logger.Errorf("Error unmarshaling connected channel credentials: %v", err)
					return fmt.Errorf("database error")
				}
			}
			providerStream.ConnectedChannel = connectedChannel
		}

		liveStream.Providers = append(liveStream.Providers, providerStream)
	}
	return nil
}

func (ls *LiveStreamStoreImpl) DeleteLiveStream(id uuid.UUID) error {
	query := `DELETE FROM live_streams WHERE id = $1`

	result, err := ls.db.Exec(query, id)
	if err != nil {
		utils.Logger.Errorf("Error deleting live stream: %v", err)
		return fmt.Errorf("failed to delete live stream")
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("live stream not found")
	}
	return nil
}

func (ls *LiveStreamStoreImpl) DeleteProviderStream(id uuid.UUID) error {
	query := `DELETE FROM live_stream_providers WHERE id = $1`

	if _, err := ls.db.Exec(query, id); err != nil {
		utils.Logger.Errorf("Error deleting provider stream: %v", err)
		return fmt.Errorf("failed to delete provider stream")
	}
	return nil
}
