// Package auth implements admin authentication: OTP by email, password login and JWT pairs.
package auth

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/crreddy/polysis/core"
)

const Collection = "adminusers"

// Roles
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleStaff   = "Staff"

	// RoleClaimAdmin is the role carried by the tokens of admin users.
	RoleClaimAdmin = "admin"
)

// BranchAll gives access to every branch.
const BranchAll = "All"

// Indexes of the admin users collection.
var Indexes = []core.Index{
	{Keys: []string{"email"}, Unique: true},
	{Keys: []string{"username"}, Unique: true},
}

type AdminUser struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Username        string             `bson:"username"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"passwordHash,omitempty"`
	FirstName       string             `bson:"firstName,omitempty"`
	LastName        string             `bson:"lastName,omitempty"`
	Role            string             `bson:"role"`
	ManagedBranches []string           `bson:"managedBranches"`
	IsActive        bool               `bson:"isActive"`
	OTPCode         string             `bson:"otpCode,omitempty"`
	OTPExpiry       *time.Time         `bson:"otpExpiry,omitempty"`
	LastLogin       *time.Time         `bson:"lastLogin,omitempty"`
	CreatedDate     time.Time          `bson:"created_date"`
	UpdatedDate     time.Time          `bson:"updated_date"`
}

// newAdminUser returns an active admin for email; the username is the local part of the address.
func newAdminUser(email string, now time.Time) AdminUser {
	username := email
	if i := strings.Index(email, "@"); i > 0 {
		username = email[:i]
	}
	return AdminUser{
		Username:        username,
		Email:           email,
		FirstName:       "Admin",
		LastName:        "User",
		Role:            RoleAdmin,
		ManagedBranches: []string{BranchAll},
		IsActive:        true,
		CreatedDate:     now,
		UpdatedDate:     now,
	}
}

func (u *AdminUser) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *AdminUser) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

func (u *AdminUser) clearOTP() {
	u.OTPCode = ""
	u.OTPExpiry = nil
}

// Person identifies the admin in log reports.
func (u *AdminUser) Person() core.Person {
	return core.Person{ID: u.ID.Hex(), Username: u.Username, Email: u.Email}
}

// UserSummary is the public view of an admin user.
type UserSummary struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Role            string   `json:"role"`
	ManagedBranches []string `json:"managedBranches"`
}

func (u *AdminUser) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID.Hex(),
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		ManagedBranches: u.ManagedBranches,
	}
}

// NewAdmin contains the information needed to create (or reset) an admin from the command line.
type NewAdmin struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"omitempty,min=3,alphanum_"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAdmin) clean() {
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
}

// ResetPassword sets a new password on an existing admin.
type ResetPassword struct {
	Login           string `json:"login" validate:"required"` // username or email
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}
