// Package audit writes security relevant events to the request logger,
// tagged so they can be routed apart from ordinary logs.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// Marketplace actions.
const (
	ActionRegister      = "market.register"
	ActionLogin         = "market.login"
	ActionLoginFailed   = "market.login_failed"
	ActionCreateProduct = "market.create_product"
	ActionUploadRelease = "market.upload_release"
	ActionDownload      = "market.download"
	ActionCheckout      = "market.checkout"
	ActionReview        = "market.review"
)

// Relay actions.
const (
	ActionRelayAuth       = "relay.auth"
	ActionRelayAuthDenied = "relay.auth_denied"
	ActionRelayChat       = "relay.chat"
	ActionRelayDisconnect = "relay.disconnect"
)

const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Entry is a pending audit record. Nothing is written until Msg.
type Entry struct {
	e *zerolog.Event
}

// Record starts an entry for action performed by userID. A zero userID
// means the actor is unknown.
func Record(ctx context.Context, action string, userID int64) Entry {
	l := log.Ctx(ctx)
	e := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action)
	if userID != 0 {
		e = e.Int64(log.FieldUserID, userID)
	}
	return Entry{e: e}
}

// Target names the object acted on.
func (a Entry) Target(id int64) Entry {
	a.e = a.e.Int64(FieldTargetID, id)
	return a
}

// Detail attaches free-form context.
func (a Entry) Detail(detail string) Entry {
	a.e = a.e.Str(FieldDetail, detail)
	return a
}

// Msg writes the entry.
func (a Entry) Msg(msg string) {
	a.e.Msg(msg)
}
