package model

import "time"

// Document is a supporting file referenced by a generation request. The
// pipeline only needs the extracted text; upload and storage live elsewhere.
type Document struct {
	ID            string
	FirmID        string
	FileName      string
	ExtractedText string
	UploadedAt    time.Time
}

// Template is a firm-owned letter skeleton optionally referenced by a
// generation request.
type Template struct {
	ID        string
	FirmID    string
	Name      string
	Content   string
	UpdatedAt time.Time
}
