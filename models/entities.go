package models

import "time"

// PushLog is the append-only audit record written once per delivery attempt,
// including attempts that failed before the gateway ever answered.
type PushLog struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"size:255;index"`
	OS        string    `json:"os" gorm:"size:16"`
	Payload   string    `json:"payload" gorm:"type:text"`
	Response  string    `json:"response" gorm:"type:text"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TokenToAddress maps a device token to an on-chain address it watches.
type TokenToAddress struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"size:255;index"`
	OS        string    `json:"os" gorm:"size:16"`
	Address   string    `json:"address" gorm:"size:128;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TokenToTxid maps a device token to a transaction id it watches.
type TokenToTxid struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"size:255;index"`
	OS        string    `json:"os" gorm:"size:16"`
	Txid      string    `json:"txid" gorm:"size:128;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TokenToHash maps a device token to a lightning payment hash it watches.
type TokenToHash struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"size:255;index"`
	OS        string    `json:"os" gorm:"size:16"`
	Hash      string    `json:"hash" gorm:"size:128;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// PushToken is the device token registry, keyed by owner identity and
// platform. One owner may hold one token per platform.
type PushToken struct {
	Address   string    `json:"address" gorm:"primaryKey;size:128"`
	Platform  string    `json:"platform" gorm:"primaryKey;size:16"`
	Token     string    `json:"token" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// OnchainSubscription records that a subscriber identity wants updates about
// an on-chain address. Used by the fan-out layer to find who to notify.
type OnchainSubscription struct {
	ID                int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Address           string    `json:"address" gorm:"size:128;uniqueIndex:idx_onchain_sub"`
	SubscriberAddress string    `json:"subscriber_address" gorm:"size:128;uniqueIndex:idx_onchain_sub"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PushLogFilter narrows audit log queries.
type PushLogFilter struct {
	Token    string
	OS       string
	Success  *bool
	Page     int
	PageSize int
}
