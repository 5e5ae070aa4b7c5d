package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// Domain prefix for business keys. The version suffix allows a future
// algorithm migration without colliding with existing keys.
const domainBusinessKey = "review-history/business-key/v1"

// KeyLength is the length of a hex-encoded business key.
const KeyLength = sha256.Size * 2

const fieldSeparator = 0x1f

// DeriveKey computes the business key of a canonical record:
// SHA-256 over entity, actor, ISO event date, epoch timestamp and the SHA-256
// of FreeText1. Absent values hash as empty strings.
//
// A change to FreeText1 alone yields a different key; it is a distinct
// entity instance, not a new version of the same one.
func DeriveKey(rec v1.CanonicalRecord) string {
	date := ""
	if rec.EventDate != nil {
		date = rec.EventDate.UTC().Format("2006-01-02")
	}
	epoch := ""
	if rec.EpochTimestamp != nil {
		epoch = strconv.FormatInt(*rec.EpochTimestamp, 10)
	}

	textSum := sha256.Sum256([]byte(v1.StringOr(rec.FreeText1, "")))

	h := sha256.New()
	h.Write([]byte(domainBusinessKey))
	h.Write([]byte{0x00})
	for _, part := range []string{
		rec.EntityRef,
		v1.StringOr(rec.ActorID, ""),
		date,
		epoch,
		hex.EncodeToString(textSum[:]),
	} {
		h.Write([]byte(part))
		h.Write([]byte{fieldSeparator})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// KeyBatch attaches business keys to every record.
func KeyBatch(records []v1.CanonicalRecord) []v1.KeyedRecord {
	out := make([]v1.KeyedRecord, len(records))
	for i, rec := range records {
		out[i] = v1.KeyedRecord{CanonicalRecord: rec, BusinessKey: DeriveKey(rec)}
	}
	return out
}
