package client

import (
	"context"
	"sync"
	"time"

	"github.com/graphtide/neohttp/protocol"
)

// Transaction is an explicit server-side transaction. Its phase only moves
// forward; once a terminal phase is reached the transaction is unusable and
// its session slot is released.
//
// A Transaction is not safe for concurrent use: at most one request is in
// flight per transaction, enforced by serializing every operation.
type Transaction struct {
	client    *Client
	endpoint  string
	logger    Logger
	id        int64
	assigned  bool
	phase     Phase
	startedAt time.Time
	mu        sync.Mutex
}

// ID returns the server-assigned transaction id and whether one was assigned.
// The id is immutable once assigned.
func (tx *Transaction) ID() (int64, bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.id, tx.assigned
}

// Phase returns the current lifecycle phase.
func (tx *Transaction) Phase() Phase {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.phase
}

// begin opens the transaction on the server and stores the assigned id.
// Any failure is terminal for the transaction.
func (tx *Transaction) begin(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.phase != NotStarted {
		return errTransactionNotOpen("begin", tx.phase)
	}

	req, err := protocol.BuildRequest(protocol.PhaseOpen, tx.endpoint, 0, nil)
	if err != nil {
		tx.transition(Failed)
		return err
	}

	resp, err := tx.client.transport.Send(ctx, req)
	if err != nil {
		tx.transition(Failed)
		return protocol.TranslateFailure(err)
	}

	if _, err := protocol.Translate(resp, nil); err != nil {
		tx.transition(Failed)
		return err
	}

	id, err := protocol.ExtractTransactionID(resp)
	if err != nil {
		tx.transition(Failed)
		return err
	}

	tx.id = id
	tx.assigned = true
	tx.startedAt = time.Now()
	tx.transition(Open)

	tx.logger.Debug("transaction opened", Int64("transaction_id", id))
	return nil
}

// Push sends the accumulated batch to the open transaction and returns one
// result-set per statement, in submission order. The phase stays Open on
// success.
//
// A soft failure (the server answered 2xx but reported a statement error)
// moves the transaction to Failed without sending a rollback: the server has
// already aborted it. Callers must not assume earlier statements in the batch
// were rolled back by this layer; that guarantee, if any, is the server's.
func (tx *Transaction) Push(ctx context.Context, batch *Batch) ([]protocol.Result, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.phase != Open {
		return nil, errTransactionNotOpen("push to", tx.phase)
	}

	statements := batch.Snapshot()
	req, err := protocol.BuildRequest(protocol.PhasePushToOpen, tx.endpoint, tx.id, statements)
	if err != nil {
		return nil, err
	}

	resp, err := tx.client.transport.Send(ctx, req)
	if err != nil {
		tx.transition(Failed)
		return nil, protocol.TranslateFailure(err)
	}

	results, err := protocol.Translate(resp, statements)
	if err != nil {
		tx.transition(Failed)
		return nil, err
	}

	tx.logger.Debug("pushed statements",
		Int64("transaction_id", tx.id),
		Int("statements", len(statements)))
	return results, nil
}

// Commit commits the transaction. Legal only from Open; on failure the
// transaction moves to Failed.
func (tx *Transaction) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.phase != Open {
		return errTransactionNotOpen("commit", tx.phase)
	}

	req, err := protocol.BuildRequest(protocol.PhaseCommit, tx.endpoint, tx.id, nil)
	if err != nil {
		return err
	}

	resp, err := tx.client.transport.Send(ctx, req)
	if err != nil {
		tx.transition(Failed)
		return protocol.TranslateFailure(err)
	}

	if _, err := protocol.Translate(resp, nil); err != nil {
		tx.transition(Failed)
		return err
	}

	tx.transition(Committed)
	tx.logger.Debug("transaction committed",
		Int64("transaction_id", tx.id),
		Duration("duration", time.Since(tx.startedAt)))
	return nil
}

// Rollback abandons the transaction. The local phase always becomes
// RolledBack, even when the server could not be reached: the caller's intent
// is abandonment, and the send failure is still surfaced.
func (tx *Transaction) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.phase != Open {
		return errTransactionNotOpen("rollback", tx.phase)
	}

	req, buildErr := protocol.BuildRequest(protocol.PhaseRollback, tx.endpoint, tx.id, nil)
	if buildErr != nil {
		tx.transition(RolledBack)
		return buildErr
	}

	_, sendErr := tx.client.transport.Send(ctx, req)
	tx.transition(RolledBack)

	if sendErr != nil {
		tx.logger.Warn("rollback request failed, local state still rolled back",
			Int64("transaction_id", tx.id),
			Error("error", sendErr))
		return protocol.TranslateFailure(sendErr)
	}

	tx.logger.Debug("transaction rolled back", Int64("transaction_id", tx.id))
	return nil
}

// transition moves the phase forward. Legality is decided by legalTransition;
// operation entry guards keep illegal calls unreachable.
func (tx *Transaction) transition(to Phase) {
	if !legalTransition(tx.phase, to) {
		tx.logger.Error("illegal phase transition refused",
			String("from", tx.phase.String()),
			String("to", to.String()))
		return
	}
	tx.phase = to
	if to.Terminal() && tx.client != nil {
		tx.client.release(tx)
	}
}
