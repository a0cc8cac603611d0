package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tenant represents an isolated organizational tenant.
type Tenant struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User represents an authenticated user belonging to a tenant.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TenantID     uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ImportBatch is one uploaded document and its processing state.
type ImportBatch struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	TenantID    uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	Kind        ImportKind      `db:"kind" json:"kind"`
	Status      BatchStatus     `db:"status" json:"status"`
	S3Bucket    string          `db:"s3_bucket" json:"-"`
	S3Key       string          `db:"s3_key" json:"-"`
	ContentType string          `db:"content_type" json:"content_type"`
	FileName    string          `db:"file_name" json:"file_name"`
	FileSize    int64           `db:"file_size" json:"file_size"`
	Header      json.RawMessage `db:"header" json:"header"`
	RawText     string          `db:"raw_text" json:"raw_text,omitempty"`
	ErrorMsg    string          `db:"error_msg" json:"error_msg,omitempty"`
	// Retryable marks an error or fallback-only result caused by transient
	// provider unavailability; the AI strategy may succeed on a later retry.
	Retryable   bool       `db:"retryable" json:"retryable"`
	CreatedBy   uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approved_at,omitempty"`
}

// ImportLine is one extracted row within a batch, pending resolution to a
// catalog item.
type ImportLine struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	BatchID        uuid.UUID       `db:"batch_id" json:"batch_id"`
	TenantID       uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	LineNo         int             `db:"line_no" json:"line_no"`
	Description    string          `db:"description" json:"description"`
	NormalizedDesc string          `db:"normalized_desc" json:"normalized_desc"`
	Quantity       decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice     decimal.Decimal `db:"total_price" json:"total_price"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	MatchedItemID  *uuid.UUID      `db:"matched_item_id" json:"matched_item_id,omitempty"`
	Confidence     *int            `db:"confidence" json:"confidence,omitempty"`
	Status         LineStatus      `db:"status" json:"status"`
	// Version guards manual-match updates: a stale write is rejected instead
	// of silently overwriting a concurrent reviewer's decision.
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CatalogItem is an active, tenant-scoped entity that lines resolve to:
// a product for invoice batches, a menu item for sales batches.
type CatalogItem struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TenantID  uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	Kind      ImportKind      `db:"kind" json:"kind"`
	Name      string          `db:"name" json:"name"`
	SKU       string          `db:"sku" json:"sku"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// MatchHistoryEntry is one human-confirmed description -> catalog item
// decision. Entries are append-only and never rewritten.
type MatchHistoryEntry struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TenantID       uuid.UUID `db:"tenant_id" json:"tenant_id"`
	NormalizedDesc string    `db:"normalized_desc" json:"normalized_desc"`
	ItemID         uuid.UUID `db:"item_id" json:"item_id"`
	Confidence     int       `db:"confidence" json:"confidence"`
	ConfirmedBy    uuid.UUID `db:"confirmed_by" json:"confirmed_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ProcessingMetric records one processing attempt for observability. It is
// never consulted by control flow.
type ProcessingMetric struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	TenantID       uuid.UUID        `db:"tenant_id" json:"tenant_id"`
	BatchID        uuid.UUID        `db:"batch_id" json:"batch_id"`
	Method         ExtractionMethod `db:"method" json:"method"`
	DurationMs     int64            `db:"duration_ms" json:"duration_ms"`
	Success        bool             `db:"success" json:"success"`
	ItemsExtracted int              `db:"items_extracted" json:"items_extracted"`
	Detail         string           `db:"detail" json:"detail,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// ImportJob is one durable queue entry for batch processing.
type ImportJob struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	TenantID      uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	BatchID       uuid.UUID  `db:"batch_id" json:"batch_id"`
	Attempts      int        `db:"attempts" json:"attempts"`
	MaxAttempts   int        `db:"max_attempts" json:"max_attempts"`
	NextAttemptAt time.Time  `db:"next_attempt_at" json:"next_attempt_at"`
	ClaimedAt     *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	DoneAt        *time.Time `db:"done_at" json:"done_at,omitempty"`
	LastError     string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// PurchaseLine is one committed purchase record created from an approved
// invoice line.
type PurchaseLine struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	TenantID   uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	BatchID    uuid.UUID       `db:"batch_id" json:"batch_id"`
	LineID     uuid.UUID       `db:"line_id" json:"line_id"`
	ProductID  uuid.UUID       `db:"product_id" json:"product_id"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	CreatedBy  uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// SaleRecord is one committed sale created from an approved sales-report line.
type SaleRecord struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	TenantID   uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	BatchID    uuid.UUID       `db:"batch_id" json:"batch_id"`
	LineID     uuid.UUID       `db:"line_id" json:"line_id"`
	MenuItemID uuid.UUID       `db:"menu_item_id" json:"menu_item_id"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	SaleDate   string          `db:"sale_date" json:"sale_date"`
	CreatedBy  uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
