package pipeline

import (
	"log/slog"
	"strings"
)

// BookType classifies an edition by format.
type BookType string

const (
	TypeEbook     BookType = "Ebook"
	TypePaper     BookType = "Paper"
	TypeHardCover BookType = "HardCover"
	TypeUnknown   BookType = "Unknown"
)

// CountAuthors counts royalty-pool beneficiaries in a comma-separated credit
// string. The publisher is always part of the pool, so the count gets an
// implicit +1 unless the publisher already appears in the credit string
// (case-insensitive). The rule is easy to get backward; keep it here,
// separately tested, rather than inlined in the transform.
func CountAuthors(credit, publisher string) int {
	credit = strings.TrimSpace(credit)
	if credit == "" {
		return 1
	}

	count := len(strings.Split(credit, ","))
	if publisher != "" && strings.Contains(strings.ToLower(credit), strings.ToLower(publisher)) {
		return count
	}
	return count + 1
}

// Classifier resolves an edition identifier to a book type using the three
// per-format ID lists from the sales workbook.
type Classifier struct {
	paper     map[string]struct{}
	hardcover map[string]struct{}
	ebook     map[string]struct{}
}

// NewClassifier builds a classifier from the three ID lists. An identifier
// present in more than one list is a data-quality condition: it is logged as
// a warning and resolved by the fixed priority paperback, hardcover, ebook.
func NewClassifier(paperIDs, hardcoverIDs, ebookIDs []string) *Classifier {
	c := &Classifier{
		paper:     toSet(paperIDs),
		hardcover: toSet(hardcoverIDs),
		ebook:     toSet(ebookIDs),
	}

	for id := range c.hardcover {
		if _, dup := c.paper[id]; dup {
			slog.Warn("Edition ID appears in both paperback and hardcover lists", "id", id)
		}
	}
	for id := range c.ebook {
		if _, dup := c.paper[id]; dup {
			slog.Warn("Edition ID appears in both paperback and ebook lists", "id", id)
		}
		if _, dup := c.hardcover[id]; dup {
			slog.Warn("Edition ID appears in both hardcover and ebook lists", "id", id)
		}
	}

	return c
}

// Classify returns the book type for an edition identifier; first matching
// list wins in the order paperback, hardcover, ebook.
func (c *Classifier) Classify(editionID string) BookType {
	if _, ok := c.paper[editionID]; ok {
		return TypePaper
	}
	if _, ok := c.hardcover[editionID]; ok {
		return TypeHardCover
	}
	if _, ok := c.ebook[editionID]; ok {
		return TypeEbook
	}
	return TypeUnknown
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
