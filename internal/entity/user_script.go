package entity

import "time"

// UserScript is an uploaded trading script. Storage and sandboxed
// execution of the script body live outside this service; only the
// metadata needed to attribute predictions is kept here.
type UserScript struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (UserScript) TableName() string {
	return "user_scripts"
}
