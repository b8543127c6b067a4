package models

import (
	"time"
)

// Document records a file the user exported to Google Drive.
// The bytes live in Drive; we keep the metadata needed to list,
// link and delete it, plus the size for storage-quota accounting.
type Document struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	FileName       string    `json:"fileName" db:"file_name"`
	MimeType       string    `json:"mimeType" db:"mime_type"`
	DriveFileID    string    `json:"driveFileId" db:"drive_file_id"`
	WebViewLink    string    `json:"webViewLink,omitempty" db:"web_view_link"`
	WebContentLink string    `json:"webContentLink,omitempty" db:"web_content_link"`
	FileSize       int64     `json:"fileSize" db:"file_size"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
