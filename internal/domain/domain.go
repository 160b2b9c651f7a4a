package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleReception        Role = "reception"
	RoleNurse            Role = "nurse"
	RoleClaimUser        Role = "claim_user"
	RoleClaimManager     Role = "claim_manager"
	RoleDiscountCreator  Role = "discount_creator"
	RoleFinancialManager Role = "financial_manager"
	RoleAccountant       Role = "accountant"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleReception, RoleNurse, RoleClaimUser, RoleClaimManager,
		RoleDiscountCreator, RoleFinancialManager, RoleAccountant:
		return true
	}
	return false
}

// Permission names a single guarded action. Workflow transitions check the
// acting user's role against the table below instead of consulting any
// framework-level group construct.
type Permission string

const (
	PermAdmissionConfirm   Permission = "admission.confirm"
	PermAdmissionDischarge Permission = "admission.discharge"
	PermAdmissionCancel    Permission = "admission.cancel"

	PermRoomMaintain Permission = "room.maintain"

	PermClaimSubmit  Permission = "claim.submit"
	PermClaimApprove Permission = "claim.approve"
	PermClaimReject  Permission = "claim.reject"
	PermClaimPay     Permission = "claim.pay"

	PermDiscountSubmit  Permission = "discount.submit"
	PermDiscountApprove Permission = "discount.approve"
	PermDiscountReject  Permission = "discount.reject"
	PermDiscountApply   Permission = "discount.apply"
)

var rolePermissions = map[Role][]Permission{
	RoleReception:       {PermAdmissionConfirm, PermAdmissionDischarge, PermAdmissionCancel},
	RoleNurse:           {PermAdmissionDischarge, PermRoomMaintain},
	RoleClaimUser:       {PermClaimSubmit},
	RoleClaimManager:    {PermClaimSubmit, PermClaimApprove, PermClaimReject},
	RoleDiscountCreator: {PermDiscountSubmit},
	RoleFinancialManager: {
		PermDiscountApprove, PermDiscountReject,
	},
	RoleAccountant: {PermClaimPay, PermDiscountApply},
}

// Actor is the authenticated principal a guarded transition runs as.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// Can reports whether the actor's role grants the permission. Admin holds
// every permission.
func (a Actor) Can(p Permission) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, held := range rolePermissions[a.Role] {
		if held == p {
			return true
		}
	}
	return false
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName     string `gorm:"column:last_name;type:varchar(100);not null"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index"`

	// Set when the account belongs to a patient
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	IsActive          bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount  int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil       *time.Time `gorm:"column:locked_until"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	PasswordChangedAt time.Time  `gorm:"column:password_changed_at"`
}

func (User) TableName() string {
	return "core.users"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

type AuditAction string

const (
	ActionCreate     AuditAction = "create"
	ActionRead       AuditAction = "read"
	ActionUpdate     AuditAction = "update"
	ActionDelete     AuditAction = "delete"
	ActionTransition AuditAction = "transition"
	ActionLogin      AuditAction = "login"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	StatusCode int    `gorm:"column:status_code"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "core.audit_logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID    uuid.UUID  `json:"sub"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
}

func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}
