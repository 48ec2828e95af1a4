// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/shopspring/decimal"
)

// FileFilter defines filtering options for lockbox file queries.
type FileFilter struct {
	Status *model.FileStatus
	Limit  int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Lockbox file operations
	SaveFile(ctx context.Context, file *model.File) error
	GetFile(ctx context.Context, id string) (*model.File, error)
	GetFiles(ctx context.Context, filter FileFilter) ([]model.File, error)
	MarkFilePosted(ctx context.Context, id string, postedAt time.Time) error

	// Payment operations
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ExistingPaymentHashes(ctx context.Context, hashes []string) (map[string]bool, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus, clearIssues bool) error
	SavePaymentAllocations(ctx context.Context, paymentID string, invoices []model.Invoice, ruleID, explanation string) error
	AddPaymentIssue(ctx context.Context, paymentID string, issue model.IssueCode) error

	// Open invoice reference data
	SaveOpenInvoices(ctx context.Context, invoices []model.OpenInvoice) error
	GetOpenInvoices(ctx context.Context) ([]model.OpenInvoice, error)
	ReduceOpenInvoice(ctx context.Context, id string, by decimal.Decimal) error

	// Rule catalog
	SaveRule(ctx context.Context, rule *model.Rule) error
	GetRules(ctx context.Context) ([]model.Rule, error)
	GetRuleByID(ctx context.Context, id string) (*model.Rule, error)
	IncrementRuleMatchCount(ctx context.Context, id string) error

	// Local preference store
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// CommentStore is the remote CRUD collaborator for reviewer notes,
// keyed by a prototype-identifier string. Updates are last-write-wins.
// Failures are retryable and must never corrupt local review state.
type CommentStore interface {
	List(ctx context.Context, key string) ([]model.Comment, error)
	Add(ctx context.Context, key string, comment model.Comment) (*model.Comment, error)
	Update(ctx context.Context, id, text string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
}

// RetryOptions configures retry behavior for remote operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ReportSummary contains aggregate information for an exported report.
type ReportSummary struct {
	GeneratedAt  time.Time
	TotalAmount  decimal.Decimal
	FileCount    int
	PaymentCount int
	Reconciled   int
	NeedsReview  int
	Postable     bool
}

// PostResult summarises a posting run.
type PostResult struct {
	FilesPosted    int
	PaymentsPosted int
	Skipped        int
	Amount         decimal.Decimal
}
