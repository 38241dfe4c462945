package pipeline

import (
	"strings"

	"github.com/resulam/royalties/internal/reference"
)

// Explode fans a reconciled record out to one row per credited author. Each
// comma-separated segment is trimmed and mapped through the canonical-author
// table; every other column is duplicated unchanged. Amounts are not touched
// here — apportionment already happened — so this step assigns identity, not
// money. The publisher's canonical name is a valid exploded value; filtering
// it out is the consumer's call.
func Explode(rec Reconciled, tables *reference.Tables) []Exploded {
	segments := strings.Split(strings.TrimSpace(rec.Authors), ",")

	rows := make([]Exploded, 0, len(segments))
	for _, segment := range segments {
		rows = append(rows, Exploded{
			Reconciled: rec,
			Author:     tables.CanonicalAuthor(strings.TrimSpace(segment)),
		})
	}
	return rows
}
