package user

import (
	"context"
	"fmt"
	"time"

	"forstream/configs"
	utils "forstream/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type Service struct {
	store       UserStore
	oauthConfig *oauth2.Config
}

func NewService(store UserStore, config *configs.Config) *Service {
	return &Service{
		store: store,
		oauthConfig: &oauth2.Config{
			ClientID:     config.Google.ClientID,
			ClientSecret: config.Google.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  config.Google.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
	}
}

func (s *Service) GetUser(id uuid.UUID) (*User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	return user, nil
}

// SignInWithGoogle exchanges the auth code for a Google profile and resolves
// it to a user: match by email first (linking the Google id to accounts that
// predate Google sign-in), then by Google id, then create.
func (s *Service) SignInWithGoogle(ctx context.Context, authCode string) (*User, error) {
	utils.Logger.Infof("Signing in with Google...")
	token, err := s.oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange the auth code: %w", err)
	}

	utils.Logger.Infof("Getting Google profile...")
	service, err := goauth2.NewService(ctx, option.WithTokenSource(s.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("unable to build oauth2 client: %w", err)
	}
	userinfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get user info: %w", err)
	}

	utils.Logger.Infof("[GoogleId %s] Searching for a user with email %s...", userinfo.Id, userinfo.Email)
	existing, err := s.store.GetUserByEmail(userinfo.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		utils.Logger.Infof("[GoogleId %s] User %s was found, returning it", userinfo.Id, existing.ID)
		existing.GoogleID = userinfo.Id
		if err := s.store.UpdateUser(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	utils.Logger.Infof("[GoogleId %s] No users found, searching by google id...", userinfo.Id)
	existing, err = s.store.GetUserByGoogleID(userinfo.Id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		utils.Logger.Infof("[GoogleId %s] User %s was found, returning it", userinfo.Id, existing.ID)
		return existing, nil
	}

	utils.Logger.Infof("[GoogleId %s] No users found, creating it...", userinfo.Id)
	created := &User{
		ID:               uuid.New(),
		FirstName:        userinfo.GivenName,
		LastName:         userinfo.FamilyName,
		Email:            userinfo.Email,
		GoogleID:         userinfo.Id,
		ImageURL:         userinfo.Picture,
		RegistrationDate: time.Now(),
	}
	if err := s.store.CreateUser(created); err != nil {
		return nil, err
	}
	utils.Logger.Infof("[GoogleId %s] User %s created", userinfo.Id, created.ID)
	return created, nil
}
