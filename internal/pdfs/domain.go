package pdfs

import "time"

// PDF is a stored document record. Filename is the generated storage key,
// not the name the file was uploaded under.
type PDF struct {
	ID         int64
	Title      string
	Filename   string
	UploadedBy int64
	CreatedAt  time.Time
}

// Enriched is a PDF record decorated with uploader display data.
type Enriched struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	UploadedBy   int64  `json:"uploaded_by"`
	UploaderName string `json:"uploader_name"`
	UploaderRole string `json:"uploader_role"`
}
