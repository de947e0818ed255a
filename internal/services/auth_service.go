// internal/services/auth_service.go
package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/skunkglobal/suite-server/internal/config"
	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService struct {
	db     *gorm.DB
	config *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresIn int               `json:"expires_in"` // in seconds
	User      *models.AdminUser `json:"user"`
}

func NewAuthService(db *gorm.DB, config *config.Config) *AuthService {
	return &AuthService{
		db:     db,
		config: config,
	}
}

// Login checks the admin credentials and issues a bearer token.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var admin models.AdminUser
	if err := s.db.Where("username = ?", req.Username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := admin.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(admin.ID, admin.Username, string(admin.Role), s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: s.config.JWT.AccessTokenTTL * 3600,
		User:      &admin,
	}, nil
}
