package domain

// ImportKind distinguishes the two document pipelines that share this flow.
type ImportKind string

const (
	ImportKindInvoice     ImportKind = "invoice"
	ImportKindSalesReport ImportKind = "sales_report"
)

// BatchStatus is the lifecycle of an ImportBatch.
//
// Legal transitions:
//
//	pending -> processing -> reviewing -> {approved | rejected}
//	           processing -> error -> pending (explicit retry only)
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusReviewing  BatchStatus = "reviewing"
	BatchStatusApproved   BatchStatus = "approved"
	BatchStatusRejected   BatchStatus = "rejected"
	BatchStatusError      BatchStatus = "error"
)

// legalTransitions encodes the batch status graph.
var legalTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusPending:    {BatchStatusProcessing},
	BatchStatusProcessing: {BatchStatusReviewing, BatchStatusError},
	BatchStatusReviewing:  {BatchStatusApproved, BatchStatusRejected},
	BatchStatusError:      {BatchStatusPending},
}

// CanTransition reports whether moving a batch from one status to another is legal.
func CanTransition(from, to BatchStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineStatus is the lifecycle of an ImportLine.
type LineStatus string

const (
	LineStatusPending  LineStatus = "pending"
	LineStatusMatched  LineStatus = "matched"
	LineStatusApproved LineStatus = "approved"
)

// ExtractionMethod records which strategy produced a batch's data.
type ExtractionMethod string

const (
	ExtractionMethodAI     ExtractionMethod = "ai"
	ExtractionMethodRegex  ExtractionMethod = "regex-fallback"
	ExtractionMethodFailed ExtractionMethod = "failed"
)

// UserRole defines the role hierarchy within a tenant.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// FileType represents the allowed upload file types.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}
