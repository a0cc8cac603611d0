package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTenantInactive      = errors.New("tenant is inactive")
	ErrUserInactive        = errors.New("user account is inactive")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoDecodableImages   = errors.New("none of the uploaded images could be decoded")
	ErrUploadFailed        = errors.New("file upload to storage failed")

	ErrBatchNotFound        = errors.New("import batch not found")
	ErrLineNotFound         = errors.New("import line not found")
	ErrCatalogItemNotFound  = errors.New("catalog item not found")
	ErrInvalidTransition    = errors.New("illegal batch status transition")
	ErrBatchNotReviewing    = errors.New("batch is not in reviewing status")
	ErrBatchAlreadyApproved = errors.New("batch has already been approved")
	ErrBatchNotRetryable    = errors.New("batch is not in error status")
	ErrLineVersionConflict  = errors.New("line was modified by another request")
	ErrLineNotMatchable     = errors.New("line is already approved and cannot be rematched")
)
