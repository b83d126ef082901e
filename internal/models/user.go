// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	WalletAddress string     `json:"wallet_address" gorm:"uniqueIndex;size:42;not null"`
	Username      string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"`
	Nonce         string     `json:"-" gorm:"size:64;not null"`
	Role          UserRole   `json:"role" gorm:"type:varchar(20);default:'user'"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	FullName      string     `json:"full_name,omitempty" gorm:"size:100"`
	Bio           string     `json:"bio,omitempty" gorm:"size:500"`
	AvatarURL     string     `json:"avatar_url,omitempty" gorm:"size:512"`
	Reputation    int64      `json:"reputation" gorm:"default:0"`
	TotalPrompts  int64      `json:"total_prompts" gorm:"default:0"`
	LastLoginAt   *time.Time `json:"last_login_at"`

	// Relationships
	Prompts   []Prompt   `json:"prompts,omitempty" gorm:"foreignKey:CreatorID"`
	Purchases []Purchase `json:"purchases,omitempty" gorm:"foreignKey:BuyerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// PublicProfile strips everything buyers of the user's prompts do not need.
type PublicProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address"`
	Bio           string `json:"bio,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Reputation    int64  `json:"reputation"`
	TotalPrompts  int64  `json:"total_prompts"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:            u.ID.String(),
		Username:      u.Username,
		WalletAddress: u.WalletAddress,
		Bio:           u.Bio,
		AvatarURL:     u.AvatarURL,
		Reputation:    u.Reputation,
		TotalPrompts:  u.TotalPrompts,
	}
}
