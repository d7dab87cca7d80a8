package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/intake"
)

// HashEntry computes the content hash of an entry: the hex SHA-256 of its
// NFC-normalized JSON encoding with ContentHash cleared. PrevHash is part of
// the hashed content, which chains each entry to its predecessor.
func HashEntry(e *Entry) (string, error) {
	c := *e
	c.ContentHash = ""
	b, err := json.Marshal(&c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(norm.NFC.Bytes(b))
	return hex.EncodeToString(sum[:]), nil
}

// HashSnapshot returns the hex SHA-256 of a snapshot's facts. The id and
// capture time are left out, so resubmitting the same facts under the same
// id hashes identically while any changed fact does not.
func HashSnapshot(s *intake.CaseSnapshot) (string, error) {
	if s == nil {
		return "", errors.New("snapshot is required")
	}
	c := s.Clone()
	c.ID = ""
	c.CapturedAt = time.Time{}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(norm.NFC.Bytes(b))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain checks that entries form an unbroken, strictly ordered hash
// chain for one case. Entries must be in sequence order.
func VerifyChain(caseID string, entries []*Entry) error {
	prevHash := ""
	var prev *Entry
	for i, e := range entries {
		fail := func(reason string) error {
			return &IntegrityError{CaseID: caseID, EntryID: e.ID, Sequence: e.Sequence, Reason: reason}
		}
		if e.CaseID != caseID {
			return fail("entry belongs to case " + e.CaseID)
		}
		if e.Sequence != int64(i+1) {
			return fail("sequence gap")
		}
		if prev != nil && !e.Timestamp.After(prev.Timestamp) {
			return fail("timestamp does not increase")
		}
		if e.PrevHash != prevHash {
			return fail("previous hash mismatch")
		}
		want, err := HashEntry(e)
		if err != nil {
			return fail("hash: " + err.Error())
		}
		if e.ContentHash != want {
			return fail("content hash mismatch")
		}
		prevHash = e.ContentHash
		prev = e
	}
	return nil
}
