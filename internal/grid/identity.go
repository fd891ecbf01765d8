package grid

import (
	"strings"

	"github.com/noah-isme/mellowboard/internal/models"
)

// IdentityLayout describes the columns of the identity sheet.
type IdentityLayout struct {
	HeaderRows   int
	NameColumn   int
	HandleColumn int
	ActiveColumn int
}

// DefaultIdentityLayout is one header row followed by name, handle and active columns.
var DefaultIdentityLayout = IdentityLayout{HeaderRows: 1, NameColumn: 0, HandleColumn: 1, ActiveColumn: 2}

// IdentityIndex maps normalized names to identity details from the identity sheet.
type IdentityIndex map[string]models.ParticipantIdentity

// Lookup returns the identity for name. Names missing from the sheet come back unlisted
// and inactive.
func (idx IdentityIndex) Lookup(name string) models.ParticipantIdentity {
	if identity, ok := idx[name]; ok {
		return identity
	}
	return models.ParticipantIdentity{Name: name}
}

// IndexIdentities reads the identity sheet. Rows without a name are skipped and the first
// row for a name wins.
func IndexIdentities(g models.Grid, layout IdentityLayout) IdentityIndex {
	index := make(IdentityIndex)
	for row := layout.HeaderRows; row < g.Rows(); row++ {
		name := NormalizeName(g.At(row, layout.NameColumn).Text)
		if name == "" {
			continue
		}
		if _, exists := index[name]; exists {
			continue
		}
		var handle *string
		if h := strings.TrimSpace(g.At(row, layout.HandleColumn).Text); h != "" {
			handle = &h
		}
		index[name] = models.ParticipantIdentity{
			Name:   name,
			Handle: handle,
			Active: parseActive(g.At(row, layout.ActiveColumn).Text),
			Listed: true,
		}
	}
	return index
}

func parseActive(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TRUE", "YES", "Y", "1", "ACTIVE", "✓", "✔":
		return true
	default:
		return false
	}
}
