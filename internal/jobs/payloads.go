package jobs

import (
	"encoding/json"
	"time"
)

// Payloads stay minimal and ID-based; the worker loads the full
// registration from the store.

type ExportRegistrationPayload struct {
	RegistrationID string    `json:"registrationId"`
	RequestedAt    time.Time `json:"requestedAt"`
}

func (p ExportRegistrationPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

type SendConfirmationPayload struct {
	RegistrationID string    `json:"registrationId"`
	RequestedAt    time.Time `json:"requestedAt"`
}

func (p SendConfirmationPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
