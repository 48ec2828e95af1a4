package model

import "time"

// Comment is a reviewer note attached to a prototype key in the remote
// comment store. Updates are last-write-wins.
type Comment struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Key       string
	Text      string
	Author    string
	Tab       string
}
