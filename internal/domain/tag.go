package domain

import "time"

// TagNameMinLength is the shortest accepted tag name.
const TagNameMinLength = 2

// Tag is a label shared by any number of entries. Names are globally unique
// and compared exactly.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
