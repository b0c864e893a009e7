package form

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests. The version suffix leaves
// room to change the encoding later.
const (
	DomainForm       = "formlogic/form/v1"
	DomainSubmission = "formlogic/submission/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FormDigest identifies a form definition by content.
func FormDigest(f *Form) (string, error) {
	canonical, err := MarshalCanonical(f)
	if err != nil {
		return "", fmt.Errorf("FormDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainForm, canonical), nil
}

// SubmissionDigest identifies a (form, responses) pair by content. Two
// submissions with equal digests must produce equal decisions.
func SubmissionDigest(f *Form, responses []Response) (string, error) {
	formDigest, err := FormDigest(f)
	if err != nil {
		return "", err
	}
	rs := make([]any, len(responses))
	for i, r := range responses {
		generic, err := toGeneric(r)
		if err != nil {
			return "", fmt.Errorf("SubmissionDigest: response %s: %w", r.FieldID, err)
		}
		rs[i] = generic
	}
	canonical, err := MarshalCanonical(map[string]any{
		"form":      formDigest,
		"responses": rs,
	})
	if err != nil {
		return "", fmt.Errorf("SubmissionDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSubmission, canonical), nil
}
