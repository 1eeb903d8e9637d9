// Package seed holds the demo catalog used by quotectl seed, the in-memory
// service profile and the feature tests.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/domain/serializer"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// Identifiers of the demo records.
const (
	OutletID      = "o-ntv"
	WorkflowID    = "wf-quote"
	QuoteTypeID   = "qt-airtime"
	RateCardID    = "rc-tv"
	PrizeCardID   = "rc-prizes"
	AccountAcme   = "acc-acme"
	AccountGlobex = "acc-globex"
)

// Demo workflow states and options.
const (
	StateDraft     = "draft"
	StateSubmitted = "submitted"
	StateApproved  = "approved"
	StateRejected  = "rejected"
	StateTrash     = "trash"

	OptionSubmit  = "submit"
	OptionApprove = "approve"
	OptionReject  = "reject"
	OptionDiscard = "discard"
	OptionRestore = "restore"
)

// AccountWriter stores directory accounts.
type AccountWriter interface {
	SaveAccount(ctx context.Context, a *domain.Account) error
}

// Catalog is a consistent set of catalog records.
type Catalog struct {
	Outlets    []*domain.Outlet
	Workflows  []*domain.WorkflowDefinition
	QuoteTypes []*domain.QuoteType
	Accounts   []*domain.Account
}

// Load stores c. Workflows are stored before the quote types that use
// them. accounts may be nil.
func Load(ctx context.Context, repo ports.CatalogRepository, accounts AccountWriter, c *Catalog) error {
	for _, wf := range c.Workflows {
		if err := repo.SaveWorkflow(ctx, wf); err != nil {
			return fmt.Errorf("seeding workflow %s: %w", wf.ID, err)
		}
	}

	for _, o := range c.Outlets {
		if err := repo.SaveOutlet(ctx, o); err != nil {
			return fmt.Errorf("seeding outlet %s: %w", o.ID, err)
		}
	}

	for _, qt := range c.QuoteTypes {
		if err := repo.SaveQuoteType(ctx, qt); err != nil {
			return fmt.Errorf("seeding quote type %s: %w", qt.ID, err)
		}
	}

	if accounts == nil {
		return nil
	}

	for _, a := range c.Accounts {
		if err := accounts.SaveAccount(ctx, a); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.ID, err)
		}
	}

	return nil
}

// Demo returns a television outlet with a spot rate card, an approval
// workflow and an airtime quote type with spot, production and prize
// sections.
func Demo() *Catalog {
	return &Catalog{
		Outlets:    []*domain.Outlet{demoOutlet()},
		Workflows:  []*domain.WorkflowDefinition{demoWorkflow()},
		QuoteTypes: []*domain.QuoteType{demoQuoteType()},
		Accounts: []*domain.Account{
			{ID: AccountAcme, Name: "Acme Breweries", PaymentTerms: "Net 30"},
			{ID: AccountGlobex, Name: "Globex Telecom", PaymentTerms: "Cash with order"},
		},
	}
}

func demoOutlet() *domain.Outlet {
	return &domain.Outlet{
		ID:              OutletID,
		Name:            "Nation TV",
		Abbreviation:    "NTV",
		VATRate:         decimal.RequireFromString("0.16"),
		DefaultCurrency: "KES",
		Active:          true,
		Bands: []domain.Band{
			{ID: "b-morning", Name: "Morning", Start: "06:00", End: "09:00"},
			{ID: "b-prime", Name: "Prime time", Start: "19:00", End: "22:00"},
			{ID: "b-late", Name: "Late night", Start: "22:00", End: "23:59"},
		},
		AdSizes: []domain.AdSize{
			{ID: "s-15", Name: "15 seconds"},
			{ID: "s-30", Name: "30 seconds"},
			{ID: "s-60", Name: "60 seconds"},
		},
		RateCards: []domain.RateCard{
			{
				ID:   RateCardID,
				Name: "TV spots 2024",
				Prices: []domain.RateCardPrice{
					{ID: "p-1", BandID: "b-morning", AdSizeID: "s-30", Price: decimal.NewFromInt(12000)},
					{ID: "p-2", BandID: "b-prime", AdSizeID: "s-30", Price: decimal.NewFromInt(45000)},
					{ID: "p-3", BandID: "b-prime", AdSizeID: "s-15", Price: decimal.NewFromInt(25000)},
					{ID: "p-4", BandID: "b-morning", AdSizeID: "s-60", Price: decimal.NewFromInt(21000)},
				},
			},
			{
				ID:     PrizeCardID,
				Name:   "Production",
				Simple: true,
				Prices: []domain.RateCardPrice{
					{ID: "p-5", Name: "Studio recording", Price: decimal.NewFromInt(30000)},
				},
			},
		},
	}
}

func demoWorkflow() *domain.WorkflowDefinition {
	option := func(id, name, from, to string, order int) domain.WorkflowStateOption {
		return domain.WorkflowStateOption{
			ID: id, Name: name, Enabled: true, DisplayOrder: order, SourceStateID: from, TargetStateID: to,
		}
	}

	state := func(id, name string, opts ...domain.WorkflowStateOption) domain.WorkflowState {
		return domain.WorkflowState{
			ID: id, Name: name, Enabled: true, ActorRole: "sales", Permission: domain.PermissionGroup, Options: opts,
		}
	}

	submitted := state(StateSubmitted, "Awaiting approval",
		option(OptionApprove, "Approve", StateSubmitted, StateApproved, 1),
		option(OptionReject, "Reject", StateSubmitted, StateRejected, 2),
	)
	submitted.ActorRole = "sales-manager"
	submitted.PullbackEnabled = true

	return &domain.WorkflowDefinition{
		ID:           WorkflowID,
		Name:         "Quote approval",
		StartStateID: StateDraft,
		EndStateIDs:  []string{StateApproved, StateRejected},
		TrashStateID: StateTrash,
		States: []domain.WorkflowState{
			state(StateDraft, "Draft",
				option(OptionSubmit, "Submit for approval", StateDraft, StateSubmitted, 1),
				option(OptionDiscard, "Move to trash", StateDraft, StateTrash, 2),
			),
			submitted,
			state(StateApproved, "Approved"),
			state(StateRejected, "Rejected",
				option(OptionDiscard, "Move to trash", StateRejected, StateTrash, 1),
			),
			state(StateTrash, "Trash",
				option(OptionRestore, "Restore", StateTrash, StateDraft, 1),
			),
		},
	}
}

func demoQuoteType() *domain.QuoteType {
	return &domain.QuoteType{
		ID:                   QuoteTypeID,
		Name:                 "Airtime",
		WorkflowDefinitionID: WorkflowID,
		DefaultDuration:      2,
		DefaultStartOffset:   7,
		Sections: []domain.QuoteSectionType{
			{
				Name:         "Spots",
				LineType:     domain.QuoteLineType{ID: "lt-spot", Name: "Spot ad", Serializer: serializer.NameBroadcastPattern},
				RateCardID:   RateCardID,
				DisplayOrder: 1,
			},
			{
				Name:         "Production",
				LineType:     domain.QuoteLineType{ID: "lt-production", Name: "Production", Serializer: serializer.NameRateCard},
				RateCardID:   PrizeCardID,
				DisplayOrder: 2,
			},
			{
				Name:           "Prizes",
				LineType:       domain.QuoteLineType{ID: "lt-prize", Name: "Prize", Serializer: serializer.NameSimple},
				ExcludeFromVAT: true,
				DisplayOrder:   3,
			},
		},
	}
}
