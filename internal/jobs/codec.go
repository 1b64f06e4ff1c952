package jobs

import (
	"encoding/json"
	"fmt"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobExportRegistration:
		_, ok := payload.(ExportRegistrationPayload)

		if !ok {
			_, ok2 := payload.(*ExportRegistrationPayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}

	case JobSendConfirmation:
		_, ok := payload.(SendConfirmationPayload)

		if !ok {
			_, ok2 := payload.(*SendConfirmationPayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals a raw job payload into the typed payload struct.
func DecodePayload(t JobType, raw []byte) (any, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(raw) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobExportRegistration:
		var p ExportRegistrationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		if p.RegistrationID == "" {
			return nil, ErrInvalidJobPayload
		}
		return p, nil

	case JobSendConfirmation:
		var p SendConfirmationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		if p.RegistrationID == "" {
			return nil, ErrInvalidJobPayload
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}
