// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FileStatus represents the processing state of a lockbox file.
type FileStatus string

// File statuses.
const (
	FileStatusProcessing FileStatus = "processing"
	FileStatusReady      FileStatus = "ready"
	FileStatusPosted     FileStatus = "posted"
)

// File is a batch of payments received from a bank on a given date.
type File struct {
	UploadedAt time.Time
	PostedAt   *time.Time
	ID         string
	Name       string
	Status     FileStatus
	Payments   []Payment
	Expanded   bool
}

// PaymentCount returns the number of payments in the file.
func (f *File) PaymentCount() int {
	return len(f.Payments)
}

// TotalAmount sums the amounts of all payments in the file.
func (f *File) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range f.Payments {
		total = total.Add(f.Payments[i].Amount)
	}
	return total
}
