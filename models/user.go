package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:191;not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:100" json:"name"`
	Password     string    `gorm:"size:255" json:"-"`
	Role         UserRole  `gorm:"size:10;not null;default:user" json:"role"`
	ProfileImage string    `gorm:"size:512" json:"profile_image"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=191"`
	Name     string `json:"name" form:"name" validate:"max=100"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// IdentityProfile is what the OAuth front proxy knows about a signed-in user.
type IdentityProfile struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type LoginInfo struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

/*
caches:
	User:$id
	RevokedToken:$token
*/

const userCacheLifespan = time.Hour

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + u.ID)
}

func (u *User) active() bool {
	return u.IsActive == nil || *u.IsActive
}

// initialRole applies the admin allow-list; an explicit role is honoured only
// while bootstrapping (no users yet) or when an admin is creating the user.
func initialRole(ctx context.Context, db *gorm.DB, email string, requested string) (UserRole, error) {
	if config.IsAdminEmail(email) {
		return UserRoleAdmin, nil
	}
	role := UserRole(strings.ToLower(strings.TrimSpace(requested)))
	if role == "" || role == UserRoleUser {
		return UserRoleUser, nil
	}
	if !role.IsValid() {
		return "", utils.NewValidationError("invalid role: " + requested)
	}
	if callerRole, ok := utils.GetUserRoleFromContext(ctx); ok && UserRole(callerRole) == UserRoleAdmin {
		return role, nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return role, nil
	}
	return UserRoleUser, nil
}

func CreateUser(ctx context.Context, input *NewUser, profileImage string) (*User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.Password != "" && len(input.Password) < utils.MinPasswordLength {
		return nil, utils.NewValidationError("password must be at least 6 characters")
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, ""); err != nil {
		return nil, err
	}

	db := config.GetDB()
	role, err := initialRole(ctx, db, input.Email, input.Role)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:        input.Email,
		Name:         html.EscapeString(strings.TrimSpace(input.Name)),
		Role:         role,
		ProfileImage: profileImage,
		IsActive:     utils.NewTrue(),
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("duplicate email")
		}
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+id, &user)
	if err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUser", "GetRedisObject", id, err)
	}
	if exists && user.ID != "" {
		return &user, nil
	}

	result, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject("User:"+id, result, userCacheLifespan); err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUser", "SetRedisObject", id, err)
	}
	return result, nil
}

// GetUsersByIds returns the users found; missing ids are simply absent.
func GetUsersByIds(ctx context.Context, ids []string) ([]*User, error) {
	var results []*User
	if len(ids) == 0 {
		return results, nil
	}
	if err := config.GetDB().WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {
	db := config.GetDB()
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	if err := db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewValidationError("invalid email or password")
		}
		return nil, err
	}
	if user.Password == "" || utils.ComparePassword(user.Password, password) != nil {
		return nil, utils.NewValidationError("invalid email or password")
	}
	if !user.active() {
		return nil, utils.NewValidationError("user is disabled")
	}
	return issueLogin(&user)
}

func issueLogin(user *User) (*LoginInfo, error) {
	token, err := utils.JwtGenerate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginInfo{Token: token, User: user}, nil
}

// Logout revokes the current bearer token until it would have expired anyway.
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, utils.NewValidationError("token is required")
	}
	claims, err := utils.JwtValidate(token)
	if err != nil {
		return false, utils.NewValidationError("invalid token")
	}
	if config.GetRedisDB() == nil {
		return false, errors.New("session store not available")
	}
	if err := config.SetRedisValue("RevokedToken:"+token, claims.ID, utils.TokenExpiry(claims)); err != nil {
		return false, err
	}
	return true, nil
}

func IsTokenRevoked(token string) (bool, error) {
	_, exists, err := config.GetRedisValue("RevokedToken:" + token)
	return exists, err
}

// FindOrCreateIdentityUser is called after the identity provider has
// authenticated someone. The admin allow-list is only consulted when the
// user is first created; afterwards only the profile image is refreshed.
func FindOrCreateIdentityUser(ctx context.Context, profile *IdentityProfile) (*LoginInfo, error) {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if err := utils.ValidateStruct(profile); err != nil {
		return nil, err
	}
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("email = ?", profile.Email).Take(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		role := UserRoleUser
		if config.IsAdminEmail(profile.Email) {
			role = UserRoleAdmin
		}
		user = User{
			Email:        profile.Email,
			Name:         html.EscapeString(strings.TrimSpace(profile.Name)),
			Role:         role,
			ProfileImage: profile.Image,
			IsActive:     utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			if !utils.IsDuplicateKeyError(err) {
				return nil, err
			}
			// concurrent first login
			if err := db.WithContext(ctx).Where("email = ?", profile.Email).Take(&user).Error; err != nil {
				return nil, err
			}
		}
	case err != nil:
		return nil, err
	default:
		if profile.Image != "" && profile.Image != user.ProfileImage {
			if err := db.WithContext(ctx).Model(&user).Update("profile_image", profile.Image).Error; err != nil {
				return nil, err
			}
			if err := user.RemoveInstanceRedis(); err != nil {
				config.LogError(config.GetLogger(), "user.go", "FindOrCreateIdentityUser", "RemoveInstanceRedis", user.ID, err)
			}
		}
	}

	if !user.active() {
		return nil, utils.NewValidationError("user is disabled")
	}
	return issueLogin(&user)
}

// ResolveActor returns the user a mutation is attributed to: the
// authenticated user when there is one, otherwise (unless REQUIRE_AUTH is
// set) the earliest-created user.
func ResolveActor(ctx context.Context) (*User, error) {
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		user, err := GetUser(ctx, userId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError("user not found")
			}
			return nil, err
		}
		return user, nil
	}
	if config.RequireAuth() {
		return nil, utils.ErrorUnauthorized
	}

	var user User
	err := config.GetDB().WithContext(ctx).Order("created_at asc").Order("id asc").Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewValidationError("No user found. Create a user first.")
		}
		return nil, err
	}
	return &user, nil
}

// ActorIdOrEmpty is ResolveActor for attribution that is nice-to-have only.
func ActorIdOrEmpty(ctx context.Context) string {
	actor, err := ResolveActor(ctx)
	if err != nil {
		return ""
	}
	return actor.ID
}
