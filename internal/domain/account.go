package domain

// UserAccount is the acting user as resolved from the caller's identity.
type UserAccount struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Account is a customer account in the CRM directory. Quotes reference
// accounts by id for the ordering and booking party.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PaymentTerms string `json:"paymentTerms,omitempty"`
}
