package core

import "time"

// Resources named in change events.
const (
	ResourceAccount        = "account"
	ResourceAccountSummary = "account_summary"
	ResourceCategory       = "category"
	ResourceTransaction    = "transaction"
	ResourceMonthlySummary = "monthly_summary"
	ResourceDailySummary   = "daily_summary"
	ResourceDashboard      = "dashboard"
	ResourceSession        = "session"
)

type ChangeOp string

const (
	OpFetched ChangeOp = "fetched"
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpRemoved ChangeOp = "removed"
	OpLogin   ChangeOp = "login"
	OpLogout  ChangeOp = "logout"
)

// ChangeEvent describes one mutation of a client-side cache. ID is zero for
// wholesale replacements.
type ChangeEvent struct {
	Resource string    `json:"resource"`
	Op       ChangeOp  `json:"op"`
	ID       int64     `json:"id,omitempty"`
	Count    int       `json:"count,omitempty"`
	At       time.Time `json:"at"`
}
