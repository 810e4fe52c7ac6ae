package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/tj/assert"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

func record(t *testing.T, write func(ctx context.Context)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(log.Config{}, &buf))
	write(ctx)

	var m map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestRecord(t *testing.T) {
	m := record(t, func(ctx context.Context) {
		Record(ctx, ActionCheckout, 4).Target(9).Detail("card").Msg("order completed")
	})
	assert.Equal(t, log.LogTypeAudit, m[log.FieldLogType])
	assert.Equal(t, ActionCheckout, m[FieldAction])
	assert.Equal(t, float64(4), m[log.FieldUserID])
	assert.Equal(t, float64(9), m[FieldTargetID])
	assert.Equal(t, "card", m[FieldDetail])
	assert.Equal(t, "order completed", m["message"])
}

func TestRecordUnknownActor(t *testing.T) {
	m := record(t, func(ctx context.Context) {
		Record(ctx, ActionLoginFailed, 0).Detail("a@b.c").Msg("login failed")
	})
	_, ok := m[log.FieldUserID]
	assert.False(t, ok)
	assert.Equal(t, "a@b.c", m[FieldDetail])
}
