package pipeline

import "time"

// Reconciled is the enriched output of processing one raw sales record.
type Reconciled struct {
	Date            time.Time `json:"royalty_date"`
	Title           string    `json:"title"`
	EditionID       string    `json:"asin_isbn"`
	Language        string    `json:"language"`
	Nickname        string    `json:"book_nick_name"`
	Authors         string    `json:"authors"`
	AuthorsCount    int       `json:"authors_count"`
	UnitsSold       int       `json:"units_sold"`
	UnitsRefunded   int       `json:"units_refunded"`
	NetUnitsSold    int       `json:"net_units_sold"`
	Marketplace     string    `json:"marketplace"`
	Country         string    `json:"country"`
	RoyaltyType     string    `json:"royalty_type"`
	TransactionType string    `json:"transaction_type"`
	Royalty         float64   `json:"royalty"`
	Currency        string    `json:"currency"`
	RoyaltyUSD      float64   `json:"royalty_usd"`
	RoyaltyPerAuth  float64   `json:"royalty_per_author_usd"`
	BookType        BookType  `json:"book_type"`
	YearSold        int       `json:"year_sold"`
}

// Exploded is one reconciled record fanned out to a single credited author.
// RoyaltyPerAuth still carries the whole per-author share on every row:
// summing it across one record's exploded rows gives AuthorsCount times the
// share, not the record total. Consumers wanting a per-row amount must
// divide by the row count themselves.
type Exploded struct {
	Reconciled
	Author string `json:"author"`
}
