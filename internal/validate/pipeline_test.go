package validate

import (
	"testing"

	"github.com/yuktifest/yukti-backend/internal/domain/registration"
)

func soloRequest() registration.CreateRegistrationRequest {
	return registration.CreateRegistrationRequest{
		Event:      "solo_singing",
		Name:       "Asha",
		USN:        "1AB21CS001",
		College:    "ABC College",
		Department: "CSE",
		Year:       "2",
		Email:      "asha@example.com",
		Phone:      "9999999999",
		Payment: registration.PaymentRequest{
			TransactionID: "TXN-1",
			Amount:        150,
			Method:        "UPI",
		},
	}
}

func groupRequest(members int) registration.CreateRegistrationRequest {
	req := registration.CreateRegistrationRequest{
		Event:      "roadies",
		GroupName:  "Trailblazers",
		College:    "ABC College",
		Department: "CSE",
		Year:       "3",
		Email:      "lead@example.com",
		Phone:      "8888888888",
		Payment: registration.PaymentRequest{
			TransactionID: "TXN-2",
			Amount:        300,
			Method:        "UPI",
		},
	}

	for i := 0; i < members; i++ {
		req.Members = append(req.Members, registration.Member{
			Name: "Member",
			USN:  "1AB21CS10" + string(rune('0'+i)),
		})
	}

	return req
}

func TestRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*registration.CreateRegistrationRequest)
		wantMsg string
	}{
		{
			name:   "valid solo",
			mutate: func(r *registration.CreateRegistrationRequest) {},
		},
		{
			name: "missing college",
			mutate: func(r *registration.CreateRegistrationRequest) {
				r.College = ""
			},
			wantMsg: "All required fields must be filled!",
		},
		{
			name: "missing email",
			mutate: func(r *registration.CreateRegistrationRequest) {
				r.Email = ""
			},
			wantMsg: "All required fields must be filled!",
		},
		{
			name: "missing transaction id",
			mutate: func(r *registration.CreateRegistrationRequest) {
				r.Payment.TransactionID = ""
			},
			wantMsg: "All payment details are required!",
		},
		{
			name: "zero amount",
			mutate: func(r *registration.CreateRegistrationRequest) {
				r.Payment.Amount = 0
			},
			wantMsg: "All payment details are required!",
		},
		{
			name: "solo without usn",
			mutate: func(r *registration.CreateRegistrationRequest) {
				r.USN = "   "
			},
			wantMsg: "USN is required for solo events!",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := soloRequest()
			tc.mutate(&req)

			v := Request(req)

			if tc.wantMsg == "" {
				if v != nil {
					t.Fatalf("expected pass, got %q", v.Message)
				}
				return
			}

			if v == nil {
				t.Fatalf("expected violation %q, got pass", tc.wantMsg)
			}

			if v.Message != tc.wantMsg {
				t.Fatalf("got %q want %q", v.Message, tc.wantMsg)
			}
		})
	}
}

func TestRequestGroupNameFallsBackToName(t *testing.T) {
	req := groupRequest(3)
	req.GroupName = ""
	req.Name = "Named Via Name Field"

	if v := Request(req); v != nil {
		t.Fatalf("expected pass, got %q", v.Message)
	}
}

func TestGroup(t *testing.T) {
	tests := []struct {
		name    string
		req     registration.CreateRegistrationRequest
		wantMsg string
	}{
		{
			name: "exactly at bound",
			req:  groupRequest(3),
		},
		{
			name:    "below minimum",
			req:     groupRequest(2),
			wantMsg: "roadies requires between 3 and 3 members.",
		},
		{
			name:    "above maximum",
			req:     groupRequest(4),
			wantMsg: "roadies requires between 3 and 3 members.",
		},
		{
			name: "member missing usn",
			req: func() registration.CreateRegistrationRequest {
				r := groupRequest(3)
				r.Members[1].USN = ""
				return r
			}(),
			wantMsg: "Each group member must have a name and USN.",
		},
		{
			name: "solo event skips group checks",
			req:  soloRequest(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Group(tc.req)

			if tc.wantMsg == "" {
				if v != nil {
					t.Fatalf("expected pass, got %q", v.Message)
				}
				return
			}

			if v == nil || v.Message != tc.wantMsg {
				t.Fatalf("got %v want %q", v, tc.wantMsg)
			}
		})
	}
}
