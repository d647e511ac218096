package models

import "time"

// ChatExchange is one question sent to the reporting endpoint and its outcome.
type ChatExchange struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportRequest is the body posted to the reporting endpoint.
type ReportRequest struct {
	Query string `json:"query"`
}

// ReportResponse is the reporting endpoint's reply.
type ReportResponse struct {
	Answer string `json:"answer"`
}
