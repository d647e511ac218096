package models

import "encoding/json"

// Page is the envelope returned by paginated search endpoints.
// Data is left raw so the caller can decode it into the domain record type.
type Page struct {
	Data     json.RawMessage `json:"data"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
