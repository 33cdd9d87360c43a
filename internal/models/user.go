package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the credential record (the identity) a Profile hangs off.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex"` // first_last_N handle
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Password    string    `json:"-"` // bcrypt hash
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterRequest holds the credential half of the registration form;
// the rest binds into ProfileFields.
type RegisterRequest struct {
	FirstName string `form:"firstname" validate:"required,min=1,max=60"`
	LastName  string `form:"lastname" validate:"required,min=1,max=60"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" form:"idToken" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
