// Package app contains the use cases of the quote engine. Services depend on
// the ports package only and run each use case against the domain model.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quote-engine/internal/app/reqscope"
	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/domain/serializer"
	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// lookupConcurrency bounds concurrent catalog reads while listing.
const lookupConcurrency = 4

// QuoteService runs the quote use cases: creation, editing, pricing and
// workflow steps.
type QuoteService struct {
	quotes      ports.QuoteRepository
	catalog     ports.CatalogRepository
	identity    ports.IdentityResolver
	serializers ports.SerializerRegistry
	accounts    ports.AccountDirectory
	exec        *Executor
	metrics     *quoteMetrics
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// QuoteServiceConfig contains the dependencies of the quote service.
// Now and NewID default to time.Now and random UUIDs; Meter defaults to the
// global otel meter.
type QuoteServiceConfig struct {
	Quotes      ports.QuoteRepository
	Catalog     ports.CatalogRepository
	Identity    ports.IdentityResolver
	Serializers ports.SerializerRegistry
	Accounts    ports.AccountDirectory
	Logger      *slog.Logger
	Meter       metric.Meter
	Now         func() time.Time
	NewID       func() string
}

// NewQuoteService creates a new quote service with the provided dependencies.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.QuoteService"))

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &QuoteService{
		quotes:      cfg.Quotes,
		catalog:     cfg.Catalog,
		identity:    cfg.Identity,
		serializers: cfg.Serializers,
		accounts:    cfg.Accounts,
		exec:        NewExecutor(logger),
		metrics:     newQuoteMetrics(cfg.Meter, logger),
		logger:      logger,
		now:         now,
		newID:       newID,
	}
}

// QuoteView is a quote with everything derived on read.
type QuoteView struct {
	Quote          *domain.Quote
	Outlet         *domain.Outlet
	Type           *domain.QuoteType
	Totals         domain.Totals
	Classification domain.Classification
	Options        []domain.WorkflowStateOption
	CanPullback    bool
}

// CreateQuoteInput selects the outlet and quote type of a new quote.
type CreateQuoteInput struct {
	OutletID string
	TypeID   string
}

type createPlan struct {
	outlet   *domain.Outlet
	qt       *domain.QuoteType
	workflow *domain.WorkflowDefinition
	quote    *domain.Quote
}

// CreateQuote numbers a new quote, expands its type's sections and places
// it in the workflow's start state.
//
// The quote number is drawn before the quote is stored. If storing fails
// the number stays consumed.
func (s *QuoteService) CreateQuote(ctx context.Context, in CreateQuoteInput) (*domain.Quote, error) {
	ctx = s.withRequestContext(ctx)

	op := Operation[CreateQuoteInput, *createPlan, *createPlan, *domain.Quote]{
		Name: "quote.create",
		Validate: func(_ context.Context, in CreateQuoteInput) error {
			if in.OutletID == "" {
				return domain.NewValidationError("outletId", "is required")
			}

			if in.TypeID == "" {
				return domain.NewValidationError("typeId", "is required")
			}

			return nil
		},
		Perform: s.planQuote,
		Verify: func(_ context.Context, _ CreateQuoteInput, p *createPlan) (*createPlan, error) {
			if p.quote.CurrentState != p.workflow.StartStateID || len(p.quote.History) != 1 {
				return nil, fmt.Errorf("quote %s not placed in start state %q", p.quote.ID, p.workflow.StartStateID)
			}

			return p, nil
		},
		Archive: func(ctx context.Context, _ CreateQuoteInput, p *createPlan) error {
			return s.quotes.Create(ctx, p.quote)
		},
		Respond: func(ctx context.Context, _ CreateQuoteInput, p *createPlan) (*domain.Quote, error) {
			s.metrics.quoteCreated(ctx, p.outlet.ID, p.qt.ID)

			return p.quote, nil
		},
	}

	q, err := Execute(ctx, s.exec, op, in)
	if err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	return q, nil
}

func (s *QuoteService) planQuote(ctx context.Context, in CreateQuoteInput) (*createPlan, error) {
	outlet, qt, err := Parallel2(ctx,
		func(ctx context.Context) (*domain.Outlet, error) { return s.catalog.GetOutlet(ctx, in.OutletID) },
		func(ctx context.Context) (*domain.QuoteType, error) { return s.quoteType(ctx, in.TypeID) },
	)
	if err != nil {
		return nil, err
	}

	wf, err := s.workflow(ctx, qt.WorkflowDefinitionID)
	if err != nil {
		return nil, err
	}

	n, err := s.catalog.NextQuoteNumber(ctx, outlet.ID)
	if err != nil {
		return nil, fmt.Errorf("drawing quote number: %w", err)
	}

	now := s.now()
	today := domain.CalendarDay(now)
	actor := s.actor(ctx)

	q := &domain.Quote{
		ID:                  s.newID(),
		OutletID:            outlet.ID,
		QuoteNumber:         domain.FormatQuoteNumber(outlet.Abbreviation, n),
		QuoteDate:           today,
		StartDate:           today.AddDate(0, 0, qt.DefaultStartOffset),
		Duration:            qt.Duration(),
		SalesRepresentative: actor,
		TypeID:              qt.ID,
		Currency:            outlet.DefaultCurrency,
		Sections:            domain.SectionsFromTemplate(qt, s.newID),
		Comments:            []domain.QuoteComment{},
	}

	wf.Start(q, s.newID(), actor, now)

	return &createPlan{outlet: outlet, qt: qt, workflow: wf, quote: q}, nil
}

// GetQuote returns a quote with its totals, classification and the options
// legal from its current state.
func (s *QuoteService) GetQuote(ctx context.Context, id string) (*QuoteView, error) {
	ctx = s.withRequestContext(ctx)

	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	view, err := s.view(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	return view, nil
}

func (s *QuoteService) view(ctx context.Context, q *domain.Quote) (*QuoteView, error) {
	outlet, qt, err := Parallel2(ctx,
		func(ctx context.Context) (*domain.Outlet, error) { return s.catalog.GetOutlet(ctx, q.OutletID) },
		func(ctx context.Context) (*domain.QuoteType, error) { return s.quoteType(ctx, q.TypeID) },
	)
	if err != nil {
		return nil, err
	}

	wf, err := s.workflow(ctx, qt.WorkflowDefinitionID)
	if err != nil {
		return nil, err
	}

	return &QuoteView{
		Quote:          q,
		Outlet:         outlet,
		Type:           qt,
		Totals:         q.Totals(outlet.VATRate),
		Classification: wf.Classify(q.CurrentState),
		Options:        wf.LegalOptions(q.CurrentState),
		CanPullback:    wf.CanPullback(q),
	}, nil
}

// UpdateQuoteInput patches a quote's header. Nil fields are left alone.
type UpdateQuoteInput struct {
	ID         string
	Version    int64
	StartDate  *time.Time
	Duration   *int
	ValidUntil *time.Time
	Currency   *string
	QuoteFor   *string
	BookedBy   *string
}

// UpdateQuote applies a header patch. A new non-empty BookedBy account
// replaces the payment terms with the account's terms.
func (s *QuoteService) UpdateQuote(ctx context.Context, in UpdateQuoteInput) (*domain.Quote, error) {
	if in.Duration != nil && *in.Duration < 1 {
		return nil, domain.NewValidationErrorWithValue("duration", "must be at least one week", *in.Duration)
	}

	q, err := s.loadForWrite(ctx, in.ID, in.Version)
	if err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	if in.BookedBy != nil && *in.BookedBy != "" && *in.BookedBy != q.BookedBy {
		account, err := s.accounts.GetAccount(ctx, *in.BookedBy)
		if err != nil {
			return nil, fmt.Errorf("looking up booking account: %w", err)
		}

		q.PaymentTerms = account.PaymentTerms
	}

	if in.StartDate != nil {
		q.StartDate = domain.CalendarDay(*in.StartDate)
	}

	if in.Duration != nil {
		q.Duration = *in.Duration
	}

	if in.ValidUntil != nil {
		q.ValidUntil = in.ValidUntil
	}

	if in.Currency != nil {
		q.Currency = *in.Currency
	}

	if in.QuoteFor != nil {
		q.QuoteFor = *in.QuoteFor
	}

	if in.BookedBy != nil {
		q.BookedBy = *in.BookedBy
	}

	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	return q, nil
}

// StepInput moves a quote along one workflow option.
type StepInput struct {
	QuoteID  string
	OptionID string
	Version  int64
}

type stepResult struct {
	quote      *domain.Quote
	transition domain.WorkflowStateTransition
}

// Step fires a workflow option on a quote and stores the result.
func (s *QuoteService) Step(ctx context.Context, in StepInput) (*domain.Quote, error) {
	ctx = logging.WithQuoteID(s.withRequestContext(ctx), in.QuoteID)

	op := Operation[StepInput, *stepResult, *stepResult, *domain.Quote]{
		Name: "quote.step",
		Validate: func(_ context.Context, in StepInput) error {
			if in.OptionID == "" {
				return domain.NewValidationError("optionId", "is required")
			}

			return nil
		},
		Perform: func(ctx context.Context, in StepInput) (*stepResult, error) {
			q, err := s.loadForWrite(ctx, in.QuoteID, in.Version)
			if err != nil {
				return nil, err
			}

			qt, err := s.quoteType(ctx, q.TypeID)
			if err != nil {
				return nil, err
			}

			wf, err := s.workflow(ctx, qt.WorkflowDefinitionID)
			if err != nil {
				return nil, err
			}

			tr, err := wf.Step(q, in.OptionID, s.newID(), s.actor(ctx), s.now())
			if err != nil {
				return nil, err
			}

			return &stepResult{quote: q, transition: tr}, nil
		},
		Verify: func(_ context.Context, _ StepInput, r *stepResult) (*stepResult, error) {
			h := r.quote.History
			if len(h) == 0 || h[len(h)-1].ID != r.transition.ID || r.quote.CurrentState != r.transition.StateID {
				return nil, fmt.Errorf("transition %s was not recorded", r.transition.ID)
			}

			return r, nil
		},
		Archive: func(ctx context.Context, _ StepInput, r *stepResult) error {
			return s.quotes.Update(ctx, r.quote)
		},
		Respond: func(ctx context.Context, _ StepInput, r *stepResult) (*domain.Quote, error) {
			s.metrics.quoteTransitioned(ctx, r.transition)

			return r.quote, nil
		},
	}

	q, err := Execute(ctx, s.exec, op, in)
	if err != nil {
		return nil, fmt.Errorf("stepping quote %s: %w", in.QuoteID, err)
	}

	return q, nil
}

// ListQuotes returns a representative's quotes in the given class. Each
// quote is classified against its own type's workflow. An empty class
// returns every quote of the representative.
func (s *QuoteService) ListQuotes(
	ctx context.Context, rep string, class domain.Classification,
) ([]*domain.Quote, error) {
	ctx = s.withRequestContext(ctx)

	quotes, err := s.quotes.Find(ctx, ports.QuoteFilter{SalesRepresentative: rep})
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	if class == "" {
		return quotes, nil
	}

	return s.classified(ctx, quotes, class)
}

func (s *QuoteService) classified(
	ctx context.Context, quotes []*domain.Quote, class domain.Classification,
) ([]*domain.Quote, error) {
	typeIDs := make([]string, 0)
	seen := make(map[string]struct{})

	for _, q := range quotes {
		if _, ok := seen[q.TypeID]; !ok {
			seen[q.TypeID] = struct{}{}
			typeIDs = append(typeIDs, q.TypeID)
		}
	}

	workflows, err := ParallelMap(ctx, lookupConcurrency, typeIDs,
		func(ctx context.Context, typeID string) (*domain.WorkflowDefinition, error) {
			qt, err := s.quoteType(ctx, typeID)
			if err != nil {
				return nil, err
			}

			return s.workflow(ctx, qt.WorkflowDefinitionID)
		})
	if err != nil {
		return nil, fmt.Errorf("loading workflows: %w", err)
	}

	out := make([]*domain.Quote, 0, len(quotes))

	for _, q := range quotes {
		if workflows[q.TypeID].Classify(q.CurrentState) == class {
			out = append(out, q)
		}
	}

	return out, nil
}

// PurgeTrash permanently deletes a representative's trashed quotes. The
// deletions run as one unit: if one fails, the quotes already deleted are
// restored.
func (s *QuoteService) PurgeTrash(ctx context.Context, rep string) (int, error) {
	trashed, err := s.ListQuotes(ctx, rep, domain.ClassTrashed)
	if err != nil {
		return 0, fmt.Errorf("purging trash: %w", err)
	}

	batch := reqscope.New(ctx)
	for _, q := range trashed {
		if err := batch.Stage(&deleteQuoteStep{quotes: s.quotes, quote: q}); err != nil {
			return 0, fmt.Errorf("purging trash: %w", err)
		}
	}

	if err := batch.Apply(ctx); err != nil {
		return 0, fmt.Errorf("purging trash: %w", err)
	}

	logging.FromContext(ctx).InfoContext(ctx, "purged trashed quotes",
		slog.String("sales_representative", rep),
		slog.Int("count", len(trashed)),
	)

	return len(trashed), nil
}

// AddLine appends a line to a section. The line gets a property for every
// summary and detail field of the section's serializer, which then derives
// its values.
func (s *QuoteService) AddLine(ctx context.Context, quoteID, sectionID string, version int64) (*domain.QuoteLine, error) {
	q, err := s.loadForWrite(ctx, quoteID, version)
	if err != nil {
		return nil, fmt.Errorf("adding line: %w", err)
	}

	section, ser, err := s.sectionSerializer(q, sectionID)
	if err != nil {
		return nil, fmt.Errorf("adding line: %w", err)
	}

	line := domain.NewQuoteLine(s.newID())
	line.PopulateSchema(ser.Fields(q), ser.DetailFields(q))
	ser.Update(q, line)

	section.Lines = append(section.Lines, line)

	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("adding line: %w", err)
	}

	return line, nil
}

// UpdateLineInput edits a line. Nil amounts are left alone; Properties maps
// field ids to raw values.
type UpdateLineInput struct {
	QuoteID    string
	SectionID  string
	LineID     string
	Version    int64
	Quantity   *decimal.Decimal
	BookRate   *decimal.Decimal
	Discount   *decimal.Decimal
	Properties map[string]string
}

// UpdateLine applies amounts and raw property values to a line and re-runs
// the section's serializer.
func (s *QuoteService) UpdateLine(ctx context.Context, in UpdateLineInput) (*domain.QuoteLine, error) {
	q, err := s.loadForWrite(ctx, in.QuoteID, in.Version)
	if err != nil {
		return nil, fmt.Errorf("updating line: %w", err)
	}

	section, ser, err := s.sectionSerializer(q, in.SectionID)
	if err != nil {
		return nil, fmt.Errorf("updating line: %w", err)
	}

	line, err := section.Line(in.LineID)
	if err != nil {
		return nil, fmt.Errorf("updating line: %w", err)
	}

	if in.Discount != nil && !in.Discount.IsZero() && !ser.DiscountPossible() {
		return nil, domain.NewValidationError("discount", "is not possible for "+section.LineType.Serializer+" lines")
	}

	// The date range may have grown since the line was added.
	detail := ser.DetailFields(q)
	line.PopulateSchema(ser.Fields(q), detail)

	if err := applyProperties(line, detail, in.Properties); err != nil {
		return nil, fmt.Errorf("updating line: %w", err)
	}

	if in.Quantity != nil {
		line.Quantity = *in.Quantity
	}

	if in.BookRate != nil {
		line.BookRate = *in.BookRate
	}

	if in.Discount != nil {
		line.Discount = *in.Discount
	}

	ser.Update(q, line)

	s.logger.Log(ctx, logging.LevelTrace, "line derived",
		slog.String("quote_id", q.ID),
		slog.String("line_id", line.ID),
		slog.String("quantity", line.Quantity.String()),
		slog.String("total", line.Total().String()),
	)

	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("updating line: %w", err)
	}

	return line, nil
}

func applyProperties(line *domain.QuoteLine, detail []domain.QuoteLineField, values map[string]string) error {
	readOnly := make(map[string]bool, len(detail))
	for _, f := range detail {
		readOnly[strings.ToLower(f.ID)] = f.ReadOnly
	}

	for id, v := range values {
		p, ok := line.Property(id)
		if !ok {
			return domain.NewValidationErrorWithValue("properties", "unknown line property", id)
		}

		if readOnly[strings.ToLower(p.NamedIdentifier)] {
			return domain.NewValidationErrorWithValue("properties", "field is read-only", id)
		}

		p.Value = v
	}

	return nil
}

// RemoveLine deletes a line and its properties.
func (s *QuoteService) RemoveLine(ctx context.Context, quoteID, sectionID, lineID string, version int64) error {
	q, err := s.loadForWrite(ctx, quoteID, version)
	if err != nil {
		return fmt.Errorf("removing line: %w", err)
	}

	section, err := q.Section(sectionID)
	if err != nil {
		return fmt.Errorf("removing line: %w", err)
	}

	if err := section.RemoveLine(lineID); err != nil {
		return fmt.Errorf("removing line: %w", err)
	}

	if err := s.quotes.Update(ctx, q); err != nil {
		return fmt.Errorf("removing line: %w", err)
	}

	return nil
}

// AddComment appends a note by the acting user.
func (s *QuoteService) AddComment(ctx context.Context, quoteID string, version int64, text string) (*domain.QuoteComment, error) {
	if text == "" {
		return nil, domain.NewValidationError("text", "is required")
	}

	q, err := s.loadForWrite(ctx, quoteID, version)
	if err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	c := domain.QuoteComment{
		ID:      s.newID(),
		Author:  s.actor(ctx),
		Text:    text,
		Created: s.now(),
	}
	q.Comments = append(q.Comments, c)

	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	return &c, nil
}

// LineSchema describes the columns of a section's lines for this quote.
type LineSchema struct {
	Serializer       string
	DiscountPossible bool
	RateVisible      bool
	Summary          []domain.QuoteLineField
	Detail           []domain.QuoteLineField
	Frozen           []domain.QuoteLineField
	NonFrozen        []domain.QuoteLineField
}

// LineSchema returns the field layout of a section.
func (s *QuoteService) LineSchema(ctx context.Context, quoteID, sectionID string) (*LineSchema, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("getting line schema: %w", err)
	}

	section, ser, err := s.sectionSerializer(q, sectionID)
	if err != nil {
		return nil, fmt.Errorf("getting line schema: %w", err)
	}

	return &LineSchema{
		Serializer:       section.LineType.Serializer,
		DiscountPossible: ser.DiscountPossible(),
		RateVisible:      ser.RateVisible(),
		Summary:          ser.Fields(q),
		Detail:           ser.DetailFields(q),
		Frozen:           serializer.DetailFrozenFields(ser, q),
		NonFrozen:        serializer.DetailNonFrozenFields(ser, q),
	}, nil
}

func (s *QuoteService) sectionSerializer(
	q *domain.Quote, sectionID string,
) (*domain.QuoteLineSection, serializer.LineSerializer, error) {
	section, err := q.Section(sectionID)
	if err != nil {
		return nil, nil, err
	}

	ser, err := s.serializers.Resolve(section.LineType.Serializer)
	if err != nil {
		return nil, nil, err
	}

	return section, ser, nil
}

// loadForWrite fetches a quote and rejects stale versions early. A zero
// version skips the early check; the repository still enforces it.
func (s *QuoteService) loadForWrite(ctx context.Context, id string, version int64) (*domain.Quote, error) {
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if version != 0 && version != q.Version {
		return nil, domain.NewStaleWriteError("quote", id, version)
	}

	return q, nil
}

func (s *QuoteService) withRequestContext(ctx context.Context) context.Context {
	return reqscope.Ensure(ctx)
}

// actor resolves the acting user's id once per request. Resolution
// failures are logged and yield an empty actor.
func (s *QuoteService) actor(ctx context.Context) string {
	if s.identity == nil {
		return ""
	}

	user, err := reqscope.Memo(ctx, "actor", s.identity.CurrentUser)
	if err != nil {
		s.logger.WarnContext(ctx, "acting user could not be resolved", slog.Any("error", err))

		return ""
	}

	return user.ID
}

func (s *QuoteService) quoteType(ctx context.Context, id string) (*domain.QuoteType, error) {
	return reqscope.Memo(ctx, "quote-type:"+id, func(ctx context.Context) (*domain.QuoteType, error) {
		return s.catalog.GetQuoteType(ctx, id)
	})
}

func (s *QuoteService) workflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	return reqscope.Memo(ctx, "workflow:"+id, func(ctx context.Context) (*domain.WorkflowDefinition, error) {
		return s.catalog.GetWorkflow(ctx, id)
	})
}

// deleteQuoteStep removes one quote in a purge batch and recreates it on
// undo.
type deleteQuoteStep struct {
	quotes ports.QuoteRepository
	quote  *domain.Quote
}

func (a *deleteQuoteStep) Apply(ctx context.Context) error {
	return a.quotes.Delete(ctx, a.quote.ID)
}

func (a *deleteQuoteStep) Undo(ctx context.Context) error {
	return a.quotes.Create(ctx, a.quote)
}

func (a *deleteQuoteStep) String() string {
	return "delete " + a.quote.SubjectName()
}
