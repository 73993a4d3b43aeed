package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer levels in the referral tree. Display-only: commission depth is
// positional, not level-based.
const (
	LevelTop  = "top"
	LevelMid  = "mid"
	LevelBase = "base"
)

// Customer represents a member of the referral sales network. LeaderID is a
// weak reference to the customer who referred them; it is assigned once at
// signup and never reassigned.
type Customer struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	City         string              `bson:"city,omitempty" json:"city,omitempty"`
	PasswordHash string              `bson:"passwordHash,omitempty" json:"-"`
	ReferralCode string              `bson:"referralCode" json:"referralCode"`
	LeaderID     *primitive.ObjectID `bson:"leaderId,omitempty" json:"leaderId,omitempty"`
	Level        string              `bson:"level" json:"level"`
	IsAssociate  bool                `bson:"isAssociate" json:"isAssociate"`

	// Rewards projections kept in sync by the engine. The commission ledger
	// is the source of truth; Commissions is a best-effort display cache.
	ActiveBuyer  bool    `bson:"activeBuyer" json:"activeBuyer"`
	DiscountRate float64 `bson:"discountRate" json:"discountRate"`
	Commissions  float64 `bson:"commissions" json:"commissions"`

	Clabe     string    `bson:"clabe,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CanRefer reports whether a customer's level allows adding direct referrals.
func (c *Customer) CanRefer() bool {
	return c.Level == LevelTop || c.Level == LevelMid
}

// Response is the standard API response envelope.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	ReferralCode    string `json:"referralCode,omitempty"`
	LeaderID        string `json:"leaderId,omitempty"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token plus the display fields the
// storefront needs without a second round trip.
type LoginResponse struct {
	Token           string  `json:"token"`
	UserID          string  `json:"userId"`
	Name            string  `json:"name"`
	Level           string  `json:"level"`
	DiscountPercent int     `json:"discountPercent"`
	DiscountActive  bool    `json:"discountActive"`
	Commissions     float64 `json:"commissions"`
}
