package models

// CrawlRecord is the advisory, append-only record of a delivered paid crawl.
// It is written fire-and-forget after the response has been decided; losing
// a record never invalidates a served response.
type CrawlRecord struct {
	// ID is a generated UUID for the record.
	ID string `json:"id" gorm:"column:id;primaryKey"`
	// PaymentReference is the transaction hash that paid for the crawl.
	PaymentReference string `json:"payment_reference" gorm:"column:payment_reference;index"`
	// ResourcePath is the path of the delivered resource.
	ResourcePath string `json:"resource_path" gorm:"column:resource_path;index"`
	// RecipientAddress is the publisher address the payment went to.
	RecipientAddress string `json:"recipient_address" gorm:"column:recipient_address"`
	// PayerAddress is the crawler address the payment came from.
	PayerAddress string `json:"payer_address" gorm:"column:payer_address;index"`
	// AmountPaid is the paid amount in smallest units, as a decimal string.
	AmountPaid string `json:"amount_paid" gorm:"column:amount_paid"`
	// Token is the token the payment was made in.
	Token string `json:"token" gorm:"column:token"`
	// Network is the ledger network the payment was observed on.
	Network string `json:"network" gorm:"column:network"`
	// Timestamp is the unix time the crawl was served.
	Timestamp int64 `json:"timestamp" gorm:"column:timestamp;index"`
}

// ResourceEarnings is an aggregate of paid crawls per resource path.
type ResourceEarnings struct {
	ResourcePath string `json:"resource_path" gorm:"column:resource_path"`
	Crawls       int64  `json:"crawls" gorm:"column:crawls"`
	// Total is the summed amount in smallest units, as a decimal string.
	Total string `json:"total" gorm:"column:total"`
}
