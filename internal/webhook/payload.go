package webhook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Payload is the body the banking gateway posts for every movement.
type Payload struct {
	ID              flexString `json:"id"`
	Gateway         string     `json:"gateway"`
	TransactionDate string     `json:"transactionDate"`
	AccountNumber   string     `json:"accountNumber"`
	SubAccount      string     `json:"subAccount"`
	Code            string     `json:"code"`
	Content         string     `json:"content"`
	Description     string     `json:"description"`
	TransferType    string     `json:"transferType"`
	TransferAmount  Amount     `json:"transferAmount"`
	Accumulated     Amount     `json:"accumulated"`
	ReferenceCode   flexString `json:"referenceCode"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	*s = flexString(data)
	return nil
}

// Amount is an integer minor-unit amount that tolerates numeric strings and
// fractional values. Unparseable input leaves Valid false instead of failing
// the whole payload.
type Amount struct {
	Value int64
	Valid bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil
	}
	*a = Amount{Value: d.Round(0).IntPart(), Valid: true}
	return nil
}
