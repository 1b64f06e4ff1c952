package registration

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Member struct {
	Name string `json:"name"`
	USN  string `json:"usn"`
}

type Payment struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
}

type Registration struct {
	ID         string    `json:"id"`
	UniqueID   string    `json:"uniqueId"`
	Event      string    `json:"event"`
	Name       string    `json:"name"`
	USN        string    `json:"USN"`
	College    string    `json:"college"`
	Department string    `json:"department"`
	Year       string    `json:"year"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	IsGroup    bool      `json:"isGroup"`
	Members    []Member  `json:"members"`
	Payment    Payment   `json:"payment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// someone (email, USN or a group member's USN) already holds a slot for this event.
var ErrAlreadyRegistered = errors.New("already registered for event")

// the transaction id was used by any registration, for any event.
var ErrDuplicateTransaction = errors.New("transaction id already used")

// the group name is taken for this event (case-insensitive).
var ErrDuplicateGroupName = errors.New("group name already registered")

var ErrNotFound = errors.New("registration not found")

type PaymentRequest struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"paymentMethod"`
}

// Binding tags cover the unconditionally required fields; name/USN/
// members depend on whether the event is a group one, so those rules
// live in the validation pipeline, which also owns the user-facing
// messages for every failure.
type CreateRegistrationRequest struct {
	Event      string         `json:"event" binding:"required"`
	Name       string         `json:"name"`
	GroupName  string         `json:"groupName"`
	USN        string         `json:"USN"`
	College    string         `json:"college" binding:"required"`
	Department string         `json:"department" binding:"required"`
	Year       string         `json:"year" binding:"required"`
	Email      string         `json:"email" binding:"required"`
	Phone      string         `json:"phone" binding:"required"`
	Members    []Member       `json:"members"`
	Payment    PaymentRequest `json:"payment"`
}

// DisplayName resolves the registered name: group events prefer the
// dedicated groupName field, everything else keeps name as submitted.
func (req CreateRegistrationRequest) DisplayName(isGroup bool) string {
	if isGroup && strings.TrimSpace(req.GroupName) != "" {
		return strings.TrimSpace(req.GroupName)
	}

	return strings.TrimSpace(req.Name)
}

// CandidateUSNs collects every student id the request would occupy for
// the event: the solo USN, or each group member's USN.
func (req CreateRegistrationRequest) CandidateUSNs(isGroup bool) []string {
	if !isGroup {
		if usn := strings.TrimSpace(req.USN); usn != "" {
			return []string{usn}
		}
		return nil
	}

	usns := make([]string, 0, len(req.Members))

	for _, m := range req.Members {
		if usn := strings.TrimSpace(m.USN); usn != "" {
			usns = append(usns, usn)
		}
	}

	return usns
}

// A factory to build a Registration from the incoming DTO.

func NewFromCreateRequest(req CreateRegistrationRequest, isGroup bool) Registration {
	reg := Registration{
		ID:         uuid.NewString(),
		Event:      req.Event,
		Name:       req.DisplayName(isGroup),
		College:    strings.TrimSpace(req.College),
		Department: strings.TrimSpace(req.Department),
		Year:       strings.TrimSpace(req.Year),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		IsGroup:    isGroup,
		Payment: Payment{
			TransactionID: strings.TrimSpace(req.Payment.TransactionID),
			Amount:        req.Payment.Amount,
			Method:        req.Payment.Method,
		},
		CreatedAt: time.Now().UTC(),
	}

	if isGroup {
		reg.Members = make([]Member, 0, len(req.Members))

		for _, m := range req.Members {
			reg.Members = append(reg.Members, Member{
				Name: strings.TrimSpace(m.Name),
				USN:  strings.TrimSpace(m.USN),
			})
		}
	} else {
		reg.USN = strings.TrimSpace(req.USN)
	}

	return reg
}
