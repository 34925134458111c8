package channel

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"forstream/internal/platform"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ChannelStoreImpl struct {
	db *sql.DB
}

func NewChannelStore(db *sql.DB) *ChannelStoreImpl {
	return &ChannelStoreImpl{db: db}
}

// Channel catalog

func (cs *ChannelStoreImpl) CreateChannel(channel *Channel) error {
	if channel.RegistrationDate.IsZero() {
		channel.RegistrationDate = time.Now()
	}

	query := `
		INSERT INTO channels (id, name, identifier, image_url, presentation_order, required_scopes, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := cs.db.Exec(query,
		channel.ID, channel.Name, channel.Identifier, channel.ImageURL,
		channel.PresentationOrder, pq.Array(channel.RequiredScopes), channel.RegistrationDate,
	)
	if err != nil {
		utils.Logger.Errorf("Error creating channel: %v", err)
		return fmt.Errorf("failed to create channel")
	}

	return nil
}

func (cs *ChannelStoreImpl) GetChannelByIdentifier(identifier platform.Identifier) (*Channel, error) {
	channel := &Channel{}
	query := `
		SELECT id, name, identifier, image_url, presentation_order, required_scopes, registration_date
		FROM channels WHERE identifier = $1
	`

	row := cs.db.QueryRow(query, identifier)
	err := row.Scan(
		&channel.ID, &channel.Name, &channel.Identifier, &channel.ImageURL,
		&channel.PresentationOrder, pq.Array(&channel.RequiredScopes), &channel.RegistrationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		utils.Logger.Errorf("Error scanning channel by identifier: %v", err)
		return nil, fmt.Errorf("database error")
	}
	return channel, nil
}

func (cs *ChannelStoreImpl) ListChannels() ([]*Channel, error) {
	query := `
		SELECT id, name, identifier, image_url, presentation_order, required_scopes, registration_date
		FROM channels ORDER BY presentation_order ASC
	`

	rows, err := cs.db.Query(query)
	if err != nil {
		utils.Logger.Errorf("Error querying channels: %v", err)
		return nil, fmt.Errorf("database error")
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		channel := &Channel{}
		err := rows.Scan(
			&channel.ID, &channel.Name, &channel.Identifier, &channel.ImageURL,
			&channel.PresentationOrder, pq.Array(&channel.RequiredScopes), &channel.RegistrationDate,
		)
		if err != nil {
			utils.Logger.Errorf("Error scanning channel: %v", err)
			return nil, fmt.Errorf("database error")
		}
		channels = append(channels, channel)
	}

	return channels, nil
}

// Connected channels

func (cs *ChannelStoreImpl) CreateConnectedChannel(connectedChannel *ConnectedChannel) error {
	if connectedChannel.RegistrationDate.IsZero() {
		connectedChannel.RegistrationDate = time.Now()
	}

	target, credentials, err := marshalConnectedChannelBlobs(connectedChannel)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO connected_channels (id, user_id, channel_id, target, credentials, enabled, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = cs.db.Exec(query,
		connectedChannel.ID, connectedChannel.UserID, connectedChannel.ChannelID,
		target, credentials, connectedChannel.Enabled, connectedChannel.RegistrationDate,
	)
	if err != nil {
		utils.Logger.Errorf("Error creating connected channel: %v", err)
		return fmt.Errorf("failed to create connected channel")
	}

	return nil
}

func (cs *ChannelStoreImpl) UpdateConnectedChannel(connectedChannel *ConnectedChannel) error {
	target, credentials, err := marshalConnectedChannelBlobs(connectedChannel)
	if err != nil {
		return err
	}

	query := `
		UPDATE connected_channels
		SET target = $1, credentials = $2, enabled = $3
		WHERE id = $4
	`

	result, err := cs.db.Exec(query, target, credentials, connectedChannel.Enabled, connectedChannel.ID)
	if err != nil {
		utils.Logger.Errorf("Error updating connected channel: %v", err)
		return fmt.Errorf("failed to update connected channel")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("connected channel not found")
	}

	return nil
}

const connectedChannelColumns = `
	cc.id, cc.user_id, cc.channel_id, cc.target, cc.credentials, cc.enabled, cc.registration_date,
	c.id, c.name, c.identifier, c.image_url, c.presentation_order, c.required_scopes, c.registration_date
`

func (cs *ChannelStoreImpl) scanConnectedChannel(row interface{ Scan(...interface{}) error }) (*ConnectedChannel, error) {
	connectedChannel := &ConnectedChannel{Channel: &Channel{}}
	var target, credentials []byte

	err := row.Scan(
		&connectedChannel.ID, &connectedChannel.UserID, &connectedChannel.ChannelID,
		&target, &credentials, &connectedChannel.Enabled, &connectedChannel.RegistrationDate,
		&connectedChannel.Channel.ID, &connectedChannel.Channel.Name, &connectedChannel.Channel.Identifier,
		&connectedChannel.Channel.ImageURL, &connectedChannel.Channel.PresentationOrder,
		pq.Array(&connectedChannel.Channel.RequiredScopes), &connectedChannel.Channel.RegistrationDate,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(target, &connectedChannel.Target); err != nil {
		return nil, err
	}
	if len(credentials) > 0 {
		connectedChannel.Credentials = &platform.Credentials{}
		if err := json.Unmarshal(credentials, connectedChannel.Credentials); err != nil {
			return nil, err
		}
	}
	return connectedChannel, nil
}

func (cs *ChannelStoreImpl) GetConnectedChannelByID(id uuid.UUID) (*ConnectedChannel, error) {
	query := `
		SELECT ` + connectedChannelColumns + `
		FROM connected_channels cc
		JOIN channels c ON c.id = cc.channel_id
		WHERE cc.id = $1
	`

	connectedChannel, err := cs.scanConnectedChannel(cs.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		utils.Logger.Errorf("Error scanning connected channel by ID: %v", err)
		return nil, fmt.Errorf("database error")
	}
	return connectedChannel, nil
}

func (cs *ChannelStoreImpl) FindConnectedChannel(userID, channelID uuid.UUID) (*ConnectedChannel, error) {
	query := `
		SELECT ` + connectedChannelColumns + `
		FROM connected_channels cc
		JOIN channels c ON c.id = cc.channel_id
		WHERE cc.user_id = $1 AND cc.channel_id = $2
	`

	connectedChannel, err := cs.scanConnectedChannel(cs.db.QueryRow(query, userID, channelID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		utils.Logger.Errorf("Error scanning connected channel: %v", err)
		return nil, fmt.Errorf("database error")
	}
	return connectedChannel, nil
}

func (cs *ChannelStoreImpl) GetConnectedChannelsByUserID(userID uuid.UUID) ([]*ConnectedChannel, error) {
	query := `
		SELECT ` + connectedChannelColumns + `
		FROM connected_channels cc
		JOIN channels c ON c.id = cc.channel_id
		WHERE cc.user_id = $1
		ORDER BY c.presentation_order ASC
	`

	rows, err := cs.db.Query(query, userID)
	if err != nil {
		utils.Logger.Errorf("Error querying connected channels by user ID: %v", err)
		return nil, fmt.Errorf("database error")
	}
	defer rows.Close()

	var connectedChannels []*ConnectedChannel
	for rows.Next() {
		connectedChannel, err := cs.scanConnectedChannel(rows)
		if err != nil {
			utils.Logger.Errorf("Error scanning connected channel: %v", err)
			return nil, fmt.Errorf("database error")
		}
		connectedChannels = append(connectedChannels, connectedChannel)
	}

	return connectedChannels, nil
}

func (cs *ChannelStoreImpl) DeleteConnectedChannel(id uuid.UUID) error {
	query := `DELETE FROM connected_channels WHERE id = $1`

	result, err := cs.db.Exec(query, id)
	if err != nil {
		utils.Logger.Errorf("Error deleting connected channel: %v", err)
		return fmt.Errorf("failed to delete connected channel")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("connected channel not found")
	}

	return nil
}

func marshalConnectedChannelBlobs(connectedChannel *ConnectedChannel) ([]byte, []byte, error) {
	target, err := json.Marshal(connectedChannel.Target)
	if err != nil {
		utils.Logger.Errorf("Error marshaling connected channel target: %v", err)
		return nil, nil, fmt.Errorf("failed to encode connected channel")
	}
	var credentials []byte
	if connectedChannel.Credentials != nil {
		credentials, err = json.Marshal(connectedChannel.Credentials)
		if err != nil {
			utils.Logger.Errorf("Error marshaling connected channel credentials: %v", err)
			return nil, nil, fmt.Errorf("failed to encode connected channel")
		}
	}
	return target, credentials, nil
}
