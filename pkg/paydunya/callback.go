package paydunya

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// responseCodeSuccess is the provider's code for an accepted operation.
const responseCodeSuccess = "00"

// CallbackInvoice carries the invoice fields inside a callback payload.
// TotalAmount is kept as json.Number so amounts such as "160000" and 160000.0
// both survive parsing untouched.
type CallbackInvoice struct {
	Token       string      `json:"token"`
	TotalAmount json.Number `json:"total_amount"`
}

type callbackEnvelope struct {
	ResponseCode string           `json:"response_code"`
	Hash         string           `json:"hash"`
	Status       string           `json:"status"`
	Invoice      *CallbackInvoice `json:"invoice"`
}

// Callback is the raw webhook payload. The provider ships two shapes over
// time: fields at the top level, or the same fields wrapped in a "data"
// envelope. Callers never read the raw fields; they call Normalize once at
// ingress and work with the canonical view.
type Callback struct {
	ResponseCode string            `json:"response_code"`
	Hash         string            `json:"hash"`
	Status       string            `json:"status"`
	Invoice      *CallbackInvoice  `json:"invoice"`
	Data         *callbackEnvelope `json:"data"`
}

// Normalized is the canonical callback view. Missing fields are empty
// strings, never a value borrowed from another field.
type Normalized struct {
	ResponseCode string
	Hash         string
	Status       string
	InvoiceToken string
	TotalAmount  string
}

// ParseCallback decodes a webhook body into its raw form.
func ParseCallback(body []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("parse callback payload: %w", err)
	}
	return &cb, nil
}

// Normalize flattens the two callback shapes into one view. For each field
// the nested envelope wins when it carries a value, otherwise the top-level
// field is used, otherwise the field stays empty.
func (c *Callback) Normalize() Normalized {
	n := Normalized{
		ResponseCode: c.ResponseCode,
		Hash:         c.Hash,
		Status:       c.Status,
	}
	if c.Invoice != nil {
		n.InvoiceToken = c.Invoice.Token
		n.TotalAmount = c.Invoice.TotalAmount.String()
	}
	if c.Data != nil {
		if c.Data.ResponseCode != "" {
			n.ResponseCode = c.Data.ResponseCode
		}
		if c.Data.Hash != "" {
			n.Hash = c.Data.Hash
		}
		if c.Data.Status != "" {
			n.Status = c.Data.Status
		}
		if c.Data.Invoice != nil {
			if c.Data.Invoice.Token != "" {
				n.InvoiceToken = c.Data.Invoice.Token
			}
			if c.Data.Invoice.TotalAmount.String() != "" {
				n.TotalAmount = c.Data.Invoice.TotalAmount.String()
			}
		}
	}
	return n
}

// Accepted reports whether the provider marked the operation successful.
func (n Normalized) Accepted() bool {
	return n.ResponseCode == responseCodeSuccess
}

// ComputeHash derives the callback authenticity hash: HMAC-SHA512 over
// "token|amount" keyed with the master key, hex encoded.
func ComputeHash(masterKey, token, amount string) string {
	mac := hmac.New(sha512.New, []byte(masterKey))
	mac.Write([]byte(token + "|" + amount))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHash compares a presented hash against the expected value in
// constant time. An empty presented hash never verifies.
func VerifyHash(masterKey, token, amount, presented string) bool {
	if presented == "" {
		return false
	}
	expected := ComputeHash(masterKey, token, amount)
	return hmac.Equal([]byte(expected), []byte(presented))
}
