package user

import (
	"database/sql"
	"fmt"
	"time"

	utils "forstream/pkg/utils"

	"github.com/google/uuid"
)

type UserStoreImpl struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStoreImpl {
	return &UserStoreImpl{db: db}
}

const userColumns = `id, first_name, last_name, email, google_id, image_url, registration_date`

func (us *UserStoreImpl) CreateUser(user *User) error {
	if user.RegistrationDate.IsZero() {
		user.RegistrationDate = time.Now()
	}

	query := `
		INSERT INTO users (id, first_name, last_name, email, google_id, image_url, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := us.db.Exec(query,
		user.ID, user.FirstName, user.LastName, user.Email, user.GoogleID,
		user.ImageURL, user.RegistrationDate,
	)
	if err != nil {
		utils.Logger.Errorf("Error creating user: %v", err)
		return fmt.Errorf("failed to create user")
	}
	return nil
}

func (us *UserStoreImpl) UpdateUser(user *User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, google_id = $4, image_url = $5
		WHERE id = $6
	`
	result, err := us.db.Exec(query,
		user.FirstName, user.LastName, user.Email, user.GoogleID, user.ImageURL, user.ID,
	)
	if err != nil {
		utils.Logger.Errorf("Error updating user: %v", err)
		return fmt.Errorf("failed to update user")
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (us *UserStoreImpl) GetUserByID(id uuid.UUID) (*User, error) {
	return us.getUser(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (us *UserStoreImpl) GetUserByEmail(email string) (*User, error) {
	return us.getUser(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (us *UserStoreImpl) GetUserByGoogleID(googleID string) (*User, error) {
	return us.getUser(`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (us *UserStoreImpl) getUser(query string, arg interface{}) (*User, error) {
	user := &User{}
	row := us.db.QueryRow(query, arg)
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.GoogleID,
		&user.ImageURL, &user.RegistrationDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		utils.Logger.Errorf("Error scanning user: %v", err)
		return nil, fmt.Errorf("database error")
	}
	return user, nil
}
