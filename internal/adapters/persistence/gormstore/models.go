package gormstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// Aggregates are stored as JSON documents next to the columns they are
// queried by. Version and the outlet counter live only in their columns.

type outletRecord struct {
	ID              string `gorm:"primaryKey;size:64"`
	Name            string `gorm:"size:255;not null"`
	Abbreviation    string `gorm:"size:32;not null"`
	LastQuoteNumber int64  `gorm:"not null;default:0"`
	Document        datatypes.JSONType[domain.Outlet]
	UpdatedAt       time.Time
}

func (outletRecord) TableName() string { return "outlets" }

func (r *outletRecord) outlet() *domain.Outlet {
	o := r.Document.Data()
	o.LastQuoteNumber = r.LastQuoteNumber

	return &o
}

type quoteTypeRecord struct {
	ID                   string `gorm:"primaryKey;size:64"`
	Name                 string `gorm:"size:255;not null"`
	WorkflowDefinitionID string `gorm:"size:64;not null;index"`
	Document             datatypes.JSONType[domain.QuoteType]
	UpdatedAt            time.Time
}

func (quoteTypeRecord) TableName() string { return "quote_types" }

type workflowRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	Document  datatypes.JSONType[domain.WorkflowDefinition]
	UpdatedAt time.Time
}

func (workflowRecord) TableName() string { return "workflow_definitions" }

type quoteRecord struct {
	ID                  string    `gorm:"primaryKey;size:64"`
	Version             int64     `gorm:"not null"`
	OutletID            string    `gorm:"size:64;not null;index"`
	QuoteNumber         string    `gorm:"size:64;not null;uniqueIndex"`
	TypeID              string    `gorm:"size:64;not null;index"`
	SalesRepresentative string    `gorm:"size:64;index"`
	CurrentState        string    `gorm:"size:64"`
	QuoteDate           time.Time `gorm:"index"`
	Document            datatypes.JSONType[domain.Quote]
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (quoteRecord) TableName() string { return "quotes" }

func newQuoteRecord(q *domain.Quote) *quoteRecord {
	return &quoteRecord{
		ID:                  q.ID,
		Version:             q.Version,
		OutletID:            q.OutletID,
		QuoteNumber:         q.QuoteNumber,
		TypeID:              q.TypeID,
		SalesRepresentative: q.SalesRepresentative,
		CurrentState:        q.CurrentState,
		QuoteDate:           q.QuoteDate,
		Document:            datatypes.NewJSONType(*q),
	}
}

func (r *quoteRecord) quote() *domain.Quote {
	q := r.Document.Data()
	q.Version = r.Version

	return &q
}

// transitionRecord is the audit trail of workflow steps. Rows outlive the
// quote they belong to.
type transitionRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false"`
	QuoteID      string    `gorm:"size:64;not null;index"`
	QuoteNumber  string    `gorm:"size:64"`
	TransitionID string    `gorm:"size:64;not null;uniqueIndex"`
	OptionID     string    `gorm:"size:64"`
	StateID      string    `gorm:"size:64;not null"`
	Actor        string    `gorm:"size:64"`
	Timestamp    time.Time `gorm:"not null"`
}

func (transitionRecord) TableName() string { return "quote_transitions" }

type accountRecord struct {
	ID           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:255;not null"`
	PaymentTerms string `gorm:"size:255"`
	UpdatedAt    time.Time
}

func (accountRecord) TableName() string { return "accounts" }
