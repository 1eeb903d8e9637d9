package acl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jsamuelsen/quote-engine/internal/adapters/clients"
	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// AccountClient reads customer accounts from the CRM directory service.
// It implements ports.AccountDirectory and ports.HealthChecker.
type AccountClient struct {
	BaseAdapter
}

// NewAccountClient wraps client, which must point at the directory's base
// URL.
func NewAccountClient(client *clients.Client) *AccountClient {
	return &AccountClient{BaseAdapter: NewBaseAdapter(client, client.ServiceName())}
}

const accountStatusClosed = "closed"

type externalAccount struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	Status       string `json:"status"`
	PaymentTerms struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"paymentTerms"`
}

// GetAccount fetches one account. A closed account is reported as a
// conflict so it cannot be booked against.
func (a *AccountClient) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if err := ValidateRequired(id, "accountId"); err != nil {
		return nil, err
	}

	body, err := a.Get(ctx, "/accounts/"+url.PathEscape(id), Target{
		Operation: "get account",
		Entity:    "account",
		ID:        id,
	})
	if err != nil {
		return nil, err
	}

	ext, err := DecodeResponse[externalAccount](body)
	if err != nil {
		return nil, domain.NewUnavailableError(a.ServiceName(), err.Error())
	}

	return a.translate(ext)
}

func (a *AccountClient) translate(ext *externalAccount) (*domain.Account, error) {
	if err := ValidateRequired(ext.AccountID, "accountId"); err != nil {
		return nil, fmt.Errorf("%s returned an invalid account: %w", a.ServiceName(), err)
	}

	if err := ValidateRequired(ext.DisplayName, "displayName"); err != nil {
		return nil, fmt.Errorf("%s returned an invalid account: %w", a.ServiceName(), err)
	}

	if strings.EqualFold(ext.Status, accountStatusClosed) {
		return nil, domain.NewConflictError("account", fmt.Sprintf("account %s is closed", ext.AccountID))
	}

	terms := ext.PaymentTerms.Description
	if terms == "" {
		terms = ext.PaymentTerms.Code
	}

	return &domain.Account{
		ID:           ext.AccountID,
		Name:         ext.DisplayName,
		PaymentTerms: terms,
	}, nil
}

// Name implements ports.HealthChecker.
func (a *AccountClient) Name() string {
	return a.ServiceName()
}

// Check calls the directory's health endpoint.
func (a *AccountClient) Check(ctx context.Context) error {
	body, err := a.Get(ctx, "/health", Target{Operation: "health check"})
	if err != nil {
		return err
	}

	return body.Close()
}
