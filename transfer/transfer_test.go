package transfer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/types"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	for _, n := range []int64{100, 90} {
		rc, err := r.Transfer(ctx, "alice", types.NewAmount(n))
		if err != nil {
			t.Fatalf("Transfer(%d): %v", n, err)
		}
		if rc.AccountID != "alice" || !rc.Amount.Equal(types.NewAmount(n)) {
			t.Errorf("unexpected receipt: %+v", rc)
		}
		if !strings.HasPrefix(rc.Ref(), "xfer_") {
			t.Errorf("Ref: got %q, want xfer_ prefix", rc.Ref())
		}
	}

	if got := len(r.Receipts()); got != 2 {
		t.Fatalf("Receipts: got %d, want 2", got)
	}
	if got := r.Total(); !got.Equal(types.NewAmount(190)) {
		t.Errorf("Total: got %s, want 190", got)
	}
}

func TestRecorderFailure(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()
	boom := errors.New("insufficient pool balance")
	r.FailWith(boom)

	if _, err := r.Transfer(ctx, "bob", types.NewAmount(1)); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(r.Receipts()) != 0 {
		t.Error("failed transfer must not be recorded")
	}

	r.FailWith(nil)
	if _, err := r.Transfer(ctx, "bob", types.NewAmount(1)); err != nil {
		t.Fatalf("after recovery: %v", err)
	}
}

func TestRecorderCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRecorder().Transfer(ctx, "carol", types.NewAmount(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	var gotID account.ID
	f := Func(func(_ context.Context, accountID account.ID, amount types.Amount) (*Receipt, error) {
		gotID = accountID
		return &Receipt{Reference: "bank-42", Amount: amount}, nil
	})

	rc, err := f.Transfer(context.Background(), "dave", types.NewAmount(5))
	if err != nil {
		t.Fatal(err)
	}
	if gotID != "dave" || rc.Ref() != "bank-42" {
		t.Errorf("got id=%q ref=%q", gotID, rc.Ref())
	}
	var nilReceipt *Receipt
	if nilReceipt.Ref() != "" {
		t.Error("nil receipt Ref should be empty")
	}
}
