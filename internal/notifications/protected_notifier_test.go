package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) SendRegistrationConfirmation(ctx context.Context, in SendRegistrationConfirmationInput) error {
	f.calls++
	return f.err
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	in := SendRegistrationConfirmationInput{Email: "a@example.com", Event: "mime"}

	for i := 0; i < 2; i++ {
		if err := n.SendRegistrationConfirmation(context.Background(), in); err == nil {
			t.Fatal("expected provider error")
		}
	}

	err := n.SendRegistrationConfirmation(context.Background(), in)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}

	if inner.calls != 2 {
		t.Fatalf("inner called %d times after circuit opened", inner.calls)
	}
}

func TestCircuitClosesAfterSuccessfulTrial(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("provider down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         time.Millisecond,
	})

	in := SendRegistrationConfirmationInput{Email: "a@example.com", Event: "mime"}

	_ = n.SendRegistrationConfirmation(context.Background(), in)

	time.Sleep(5 * time.Millisecond)

	// provider recovers; half-open trial should pass and close the circuit
	inner.err = nil

	if err := n.SendRegistrationConfirmation(context.Background(), in); err != nil {
		t.Fatalf("half-open trial failed: %v", err)
	}

	if err := n.SendRegistrationConfirmation(context.Background(), in); err != nil {
		t.Fatalf("closed circuit rejected call: %v", err)
	}
}
