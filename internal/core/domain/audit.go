package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister       AuditAction = "REGISTER"
	AuditActionPayment        AuditAction = "PAYMENT"
	AuditActionRefund         AuditAction = "REFUND"
	AuditActionPayoutRequest  AuditAction = "PAYOUT_REQUEST"
	AuditActionUpdateProfile  AuditAction = "UPDATE_PROFILE"
	AuditActionApproveSeller  AuditAction = "APPROVE_SELLER"
	AuditActionSuspendSeller  AuditAction = "SUSPEND_SELLER"
	AuditActionReinstate      AuditAction = "REINSTATE_SELLER"
	AuditActionPayoutDecision AuditAction = "PAYOUT_DECISION"
	AuditActionUpdateFees     AuditAction = "UPDATE_FEES"
	AuditActionAdminLogin     AuditAction = "ADMIN_LOGIN"
	AuditActionAdminLogout    AuditAction = "ADMIN_LOGOUT"
)

// AuditActor identifies who performed an audited action.
type AuditActor string

const (
	ActorSeller AuditActor = "seller"
	ActorAdmin  AuditActor = "admin"
	ActorSystem AuditActor = "system"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	SellerID     *uuid.UUID  `json:"seller_id,omitempty"`
	Actor        AuditActor  `json:"actor"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
