package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

// A manager with a nil root DB panics the moment it tries to open a new
// transaction, so these tests double as proof that the nested path never
// touches the root connection.

func TestRunInTxJoinsExistingTransaction(t *testing.T) {
	mgr := NewTransactionManager(nil)

	outer := &gorm.DB{}
	ctx := context.WithValue(context.Background(), txKey, outer)

	called := false
	err := mgr.RunInTx(ctx, func(txCtx context.Context) error {
		called = true
		got, ok := txCtx.Value(txKey).(*gorm.DB)
		if !ok {
			t.Fatal("expected a transaction in the nested context")
		}
		if got != outer {
			t.Error("nested call received a different transaction than its caller")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned %v", err)
	}
	if !called {
		t.Fatal("callback was not invoked")
	}
}

func TestRunInTxNestedErrorReachesCaller(t *testing.T) {
	mgr := NewTransactionManager(nil)

	ctx := context.WithValue(context.Background(), txKey, &gorm.DB{})
	want := errors.New("audit write failed")

	err := mgr.RunInTx(ctx, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected the nested error to propagate, got %v", err)
	}
}
