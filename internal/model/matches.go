package model

// CustomerMatches is a result of customer identity resolution
type CustomerMatches struct {
	Customer   *Customer
	Duplicates []Customer
}

// HasMatch reports whether primary match was found
func (m CustomerMatches) HasMatch() bool {
	return m.Customer != nil
}

// Action is action taken on primary customer record during sync
type Action string

const (
	// ActionCreate means new customer record was created
	ActionCreate Action = "CREATE"
	// ActionUpdate means existing customer record was updated
	ActionUpdate Action = "UPDATE"
)
