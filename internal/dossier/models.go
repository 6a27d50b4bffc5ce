package dossier

import "time"

// Dossier is a uniquely identified, non-fungible document-of-record: a court
// order, regulator finding, or similar evidence backing a forced transfer.
// Dossiers are append-only and never deleted. Whether a dossier has been
// consumed as forced-transfer evidence is tracked by the coordinator, not
// here, so the registry stays reusable for unrelated purposes.
type Dossier struct {
	ID uint64
	// DocumentHash is the content hash of the underlying document.
	DocumentHash string
	// Subject is the holder the document concerns.
	Subject string
	// URI points at the off-system document location.
	URI      string
	IssuedBy string
	IssuedAt time.Time
}
