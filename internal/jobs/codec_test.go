package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name    string
		jobType JobType
		payload any
	}{
		{
			name:    "export",
			jobType: JobExportRegistration,
			payload: ExportRegistrationPayload{RegistrationID: "reg-1", RequestedAt: now},
		},
		{
			name:    "confirmation",
			jobType: JobSendConfirmation,
			payload: SendConfirmationPayload{RegistrationID: "reg-2", RequestedAt: now},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := EncodePayload(tc.jobType, tc.payload)

			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			decoded, err := DecodePayload(tc.jobType, raw)

			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			switch p := decoded.(type) {
			case ExportRegistrationPayload:
				if p.RegistrationID != "reg-1" {
					t.Fatalf("unexpected payload: %+v", p)
				}
			case SendConfirmationPayload:
				if p.RegistrationID != "reg-2" {
					t.Fatalf("unexpected payload: %+v", p)
				}
			default:
				t.Fatalf("unexpected decoded type %T", decoded)
			}
		})
	}
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	_, err := EncodePayload(JobExportRegistration, SendConfirmationPayload{RegistrationID: "x"})

	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("got %v, want ErrPayloadTypeMismatch", err)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := DecodePayload(JobType("bogus"), []byte(`{}`))

	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("got %v, want ErrInvalidJobType", err)
	}
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	_, err := DecodePayload(JobExportRegistration, nil)

	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("got %v, want ErrInvalidJobPayload", err)
	}
}

func TestDecodeRejectsMissingRegistrationID(t *testing.T) {
	_, err := DecodePayload(JobSendConfirmation, []byte(`{"requestedAt":"2026-01-01T00:00:00Z"}`))

	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("got %v, want ErrInvalidJobPayload", err)
	}
}
