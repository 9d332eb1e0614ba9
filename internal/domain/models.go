// Package domain defines the persistence models for the circulation core:
// titles, physical copies, loans, borrow/return requests and fines, plus the
// subscription and notification records used to announce returned stock.
// These types are mapped with GORM and shared by the repo and service layers.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Title is the catalog entry a copy belongs to. The circulation core only
// reads it to snapshot the display name into loans and requests.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display title of the book.
//   - CoverURL: optional cover image location.
type Title struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	CoverURL  string    `json:"cover_url" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Title.
func (Title) TableName() string { return "titles" }

// Copy is one physical instance of a Title.
//
// Fields:
//   - TitleID: owning title (indexed together with status for availability scans).
//   - Condition: free-text physical condition ("New", "Good", "Worn", ...).
//   - Status: AVAILABLE, BORROWED or LOST.
//   - Version: optimistic lock counter, bumped on every status change.
type Copy struct {
	ID        string     `json:"id"         gorm:"type:char(36);primaryKey"`
	TitleID   string     `json:"title_id"   gorm:"type:char(36);not null;index:idx_copy_title_status,priority:1"`
	Condition string     `json:"condition"  gorm:"type:varchar(64)"`
	Status    CopyStatus `json:"status"     gorm:"type:varchar(16);not null;index:idx_copy_title_status,priority:2;check:status IN ('AVAILABLE','BORROWED','LOST')"`
	Version   int64      `json:"version"    gorm:"not null;default:0"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Title Title `json:"-" gorm:"foreignKey:TitleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Copy.
func (Copy) TableName() string { return "copies" }

// Loan records a copy being lent to a user. Loans are never deleted.
//
// Fields:
//   - UserID: borrower identity as supplied by the identity provider.
//   - CopyID: the lent copy; the copy cannot be removed while referenced.
//   - TitleID / TitleName: snapshot of the catalog entry at lending time.
//   - LoanDate / DueDate: DueDate is LoanDate plus the borrowing period and is
//     never changed after creation.
//   - ReturnDate: set iff Status is RETURNED.
type Loan struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string     `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_loans,priority:1"`
	CopyID     string     `json:"copy_id"     gorm:"type:char(36);not null;index"`
	TitleID    string     `json:"title_id"    gorm:"type:char(36);not null;index"`
	TitleName  string     `json:"title_name"  gorm:"type:varchar(255);not null"`
	LoanDate   time.Time  `json:"loan_date"   gorm:"not null;index:idx_user_loans,priority:2"`
	DueDate    time.Time  `json:"due_date"    gorm:"not null"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     LoanStatus `json:"status"      gorm:"type:varchar(24);not null;index"`
	Version    int64      `json:"version"     gorm:"not null;default:0"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Copy Copy `json:"-" gorm:"foreignKey:CopyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Loan.
func (Loan) TableName() string { return "loans" }

// Request is a user's ask to borrow a title or return a loan, pending staff
// decision. Requests leave PENDING exactly once and are never deleted.
type Request struct {
	ID        string        `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string        `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_requests,priority:1"`
	TitleID   string        `json:"title_id"   gorm:"type:char(36);not null;index"`
	TitleName string        `json:"title_name" gorm:"type:varchar(255);not null"`
	LoanID    *string       `json:"loan_id,omitempty" gorm:"type:char(36);index"`
	Type      RequestType   `json:"type"       gorm:"type:varchar(16);not null;check:type IN ('BORROWING','RETURNING')"`
	Status    RequestStatus `json:"status"     gorm:"type:varchar(16);not null;index"`
	CreatedAt time.Time     `json:"created_at" gorm:"index:idx_user_requests,priority:2"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "requests" }

// Fine is a monetary penalty owed by a user, optionally tied to a loan.
// Settling a fine removes it from every query; the row is soft-deleted.
type Fine struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	LoanID      *string        `json:"loan_id,omitempty" gorm:"type:char(36);index"`
	Amount      int64          `json:"amount"      gorm:"not null;check:amount >= 0"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"  gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Fine.
func (Fine) TableName() string { return "fines" }

// Subscription asks to be told when a copy of TitleID becomes available.
type Subscription struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_subscription_user_title"`
	TitleID   string    `json:"title_id"   gorm:"type:char(36);not null;index;uniqueIndex:ux_subscription_user_title"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }

// Notification is a message delivered to a user's inbox.
type Notification struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Message   string    `json:"message"    gorm:"type:text;not null"`
	Read      bool      `json:"read"       gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
