package services

import (
	"context"
	"strings"
	"time"

	config "github.com/anjiri1684/field_booking/configs"
	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/notifications"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	log    *logrus.Logger
	cfg    config.Config
	mailer notifications.Mailer
}

func NewUserService(db *gorm.DB, log *logrus.Logger, cfg config.Config, mailer notifications.Mailer) *UserService {
	return &UserService{db: db, log: log, cfg: cfg, mailer: mailer}
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
}

// ProfileUpdate is a partial update; nil members are left unchanged.
type ProfileUpdate struct {
	FullName    *string
	PhoneNumber *string
	Password    *string
	IsActive    *bool
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.create(ctx, in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if s.mailer != nil {
		notifications.SendAsync(s.mailer, s.log, user.FullName, user.Email, "Welcome!",
			"<h1>Welcome!</h1><p>Thank you for registering. You can now book fields online.</p>")
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := models.User{
		ID:          utils.NewID(utils.KindUser),
		Username:    username,
		Email:       email,
		Password:    string(hashed),
		FullName:    strings.TrimSpace(in.FullName),
		PhoneNumber: in.PhoneNumber,
		UserType:    role,
		IsActive:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Conflict("Email already in use")
		}
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Conflict("Username already in use")
		}
		if err := tx.Create(&user).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperrors.Conflict("Email or username already in use")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "Failed to create user")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user created")
	return &user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if database.IsNotFound(err) {
		return nil, apperrors.Unauthenticated("Invalid email or password")
	}
	if err != nil {
		return nil, storeErr(err, "Failed to load user")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated("Account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthenticated("Invalid email or password")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to create token", err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

// IssueToken signs an HS256 token carrying the user's id and role.
func (s *UserService) IssueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.UserType,
		"exp":     time.Now().Add(time.Duration(s.cfg.JWTTTLHrs) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, storeErr(err, "Failed to load user")
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*models.User, error) {
	in.IsActive = nil
	if err := s.update(ctx, s.db.WithContext(ctx).Where("id = ?", id), in); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) update(ctx context.Context, scope *gorm.DB, in ProfileUpdate) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		updates["phone_number"] = *in.PhoneNumber
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperrors.Internal("Failed to hash password", err)
		}
		updates["password"] = string(hashed)
	}
	res := scope.Model(&models.User{}).Updates(updates)
	if res.Error != nil {
		return storeErr(res.Error, "Failed to update user")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Not found")
	}
	return nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := s.db.WithContext(ctx).Where("user_type = ?", models.RoleAdmin).Order("created_at DESC").Find(&admins).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load admins")
	}
	return admins, nil
}

func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, models.RoleAdmin)
}

func (s *UserService) UpdateAdmin(ctx context.Context, id string, in ProfileUpdate) (*models.User, error) {
	scope := s.db.WithContext(ctx).Where("id = ? AND user_type = ?", id, models.RoleAdmin)
	if err := s.update(ctx, scope, in); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("Admin not found")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) DeleteAdmin(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("user_type = ?", models.RoleAdmin).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return storeErr(res.Error, "Failed to delete admin")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Admin not found")
	}
	s.log.WithField("user_id", id).Info("admin deleted")
	return nil
}
