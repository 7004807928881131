package domain

import "time"

// FileMetadata - metadata attached to every stored object
type FileMetadata struct {
	Type         string    `bson:"type" json:"type"`
	LastModified time.Time `bson:"lastModified" json:"last_modified"`
}

// SourceInfo describes an input opened for ingestion.
type SourceInfo struct {
	Location     string // Path or URI as given on the command line
	Name         string // Base name used as the stored filename
	Size         int64
	LastModified time.Time
}

// TransferStatus is the outcome of a finished transfer.
type TransferStatus string

const (
	TransferSucceeded TransferStatus = "succeeded"
	TransferFailed    TransferStatus = "failed"
	TransferMissing   TransferStatus = "missing"
)

// TransferRecord - audit entry for a finished transfer
type TransferRecord struct {
	TransferID  string         `json:"transfer_id" dynamodbav:"transfer_id"` // Partition Key
	Pass        int            `json:"pass" dynamodbav:"pass"`
	Source      string         `json:"source" dynamodbav:"source"`
	FileName    string         `json:"file_name" dynamodbav:"file_name"`
	SizeBytes   int64          `json:"size_bytes" dynamodbav:"size_bytes"`
	BytesCopied int64          `json:"bytes_copied" dynamodbav:"bytes_copied"`
	StartedAt   time.Time      `json:"started_at" dynamodbav:"started_at"`
	DurationMs  int64          `json:"duration_ms" dynamodbav:"duration_ms"`
	Status      TransferStatus `json:"status" dynamodbav:"status"`
	Error       string         `json:"error,omitempty" dynamodbav:"error,omitempty"`
}
