// Package ticket generates ticket codes and the opaque QR payloads encoded
// into them for event check-in. All functions are pure; collision handling
// against the store is the caller's responsibility.
package ticket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const disambiguatorAlphabet = "0123456789abcdef"

// GenerateCode builds a ticket code in the format
// TKT-{timestamp}-{first 8 chars of event ID}.
func GenerateCode(timestamp int64, eventID string) string {
	prefix := eventID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("TKT-%d-%s", timestamp, prefix)
}

// Disambiguate appends a short random suffix to a colliding ticket code.
// Uniqueness stays advisory: the suffix makes a second collision unlikely,
// nothing more.
func Disambiguate(code string) string {
	suffix, err := gonanoid.Generate(disambiguatorAlphabet, 4)
	if err != nil {
		// gonanoid only fails when the system randomness source does;
		// fall back to the current nanoseconds.
		suffix = fmt.Sprintf("%04x", time.Now().UnixNano()&0xffff)
	}
	return code + "-" + suffix
}

// GenerateQRPayload encodes a ticket code into the opaque blob scanned at
// check-in. The blob is a base64 data URL wrapping a small JSON document so
// scanners can validate the shape before trusting the code.
func GenerateQRPayload(ticketCode string) string {
	doc, _ := json.Marshal(struct {
		V    int    `json:"v"`
		Code string `json:"code"`
	}{V: 1, Code: ticketCode})
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(doc)
}

const qrPayloadPrefix = "data:application/json;base64,"

// DecodeQRPayload extracts the ticket code from a scanned QR blob,
// rejecting payloads that are not the shape GenerateQRPayload produces.
func DecodeQRPayload(payload string) (string, error) {
	encoded, ok := strings.CutPrefix(payload, qrPayloadPrefix)
	if !ok {
		return "", fmt.Errorf("unrecognized QR payload format")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed QR payload: %w", err)
	}

	var doc struct {
		V    int    `json:"v"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("malformed QR payload: %w", err)
	}
	if doc.V != 1 || doc.Code == "" {
		return "", fmt.Errorf("unsupported QR payload version")
	}
	return doc.Code, nil
}
