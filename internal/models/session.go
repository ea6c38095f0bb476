package models

// SessionRecord backs the database session storage. ExpiresAt is a unix
// timestamp in seconds, 0 for records that never expire.
type SessionRecord struct {
	ID        string `gorm:"primaryKey;size:128"`
	Data      []byte
	ExpiresAt int64 `gorm:"index"`
}
