package models

import "math/big"

// Resource is a protected content entry: a path, its price and the body
// served once payment for it has been verified.
type Resource struct {
	// Path is the request path the resource is served under, e.g. "/articles/42".
	Path string `json:"path"`
	// Description is a short human-readable summary, shown in the pricing listing.
	Description string `json:"description"`
	// ContentType is the MIME type of the body.
	ContentType string `json:"content_type"`
	// Body is the content released after verification.
	Body string `json:"body"`
	// Price is the required payment in the token's smallest unit.
	Price *big.Int `json:"-"`
}
