package db

import (
	"context"
	"testing"
)

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestWithTx_NoConnection(t *testing.T) {
	ctx := context.Background()
	_, _, err := WithTx(ctx)
	if err == nil {
		t.Error("expected error when no connection in context")
	}
	if err.Error() != "no database connection in context" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestPoolFromContext_Nil(t *testing.T) {
	if PoolFromContext(context.Background()) != nil {
		t.Error("expected nil pool from empty context")
	}
}

func TestPoolFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), PoolKey, 42)
	if PoolFromContext(ctx) != nil {
		t.Error("expected nil when context value is wrong type")
	}
}
