// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/mutation"
	"github.com/cisco-talos/mutiny/pkg/processor"
	"github.com/cisco-talos/mutiny/pkg/transport"
)

// runOnce executes the per-run procedure (spec.md §4.6.1): reset the
// logger, pre_connect, open the connection, replay every message in
// order, then close. The connection is always closed, including on
// error paths.
func (d *Driver) runOnce(ctx context.Context, rs *RunState) error {
	d.Logger.ResetForNewRun()
	if err := d.Message.PreConnect(rs.Seed, d.TargetHost, d.Data.TargetPort); err != nil {
		return fmt.Errorf("pre_connect: %w", err)
	}

	conn, err := transport.Open(d.Data.Proto, d.TargetHost, d.Data.TargetPort, d.Data.SourceIP, d.Data.SourcePort, rs.Seed)
	if err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	defer conn.Close()

	receiveTimeout := secondsToDuration(d.Data.ReceiveTimeout)

	for i, msg := range d.Data.MessageCollection.Messages {
		msg.Reset()

		if msg.IsOutbound() {
			if err := d.sendOne(ctx, conn, msg, rs, i, receiveTimeout); err != nil {
				return err
			}
		} else {
			if err := d.receiveOne(conn, msg, rs, i, receiveTimeout); err != nil {
				return err
			}
		}
		rs.HighestMessageIndex = i
	}
	return nil
}

func (d *Driver) sendOne(ctx context.Context, conn transport.Conn, msg *fuzzdata.Message, rs *RunState, idx int, timeout time.Duration) error {
	payload, err := d.buildSendPayload(ctx, msg, rs.Iteration, rs.Seed)
	if err != nil {
		return fmt.Errorf("message %d: %w", idx, err)
	}
	if err := conn.Send(payload, timeout); err != nil {
		return fmt.Errorf("message %d: %w", idx, err)
	}
	if d.dumpDirFor(rs.Seed) != "" {
		fuzzed := msg.IsFuzzedMessage() && rs.Seed != mutation.NoMutation
		d.persistDump(rs.Iteration, "outbound", rs.Seed, fuzzed, payload)
	}
	return nil
}

func (d *Driver) receiveOne(conn transport.Conn, msg *fuzzdata.Message, rs *RunState, idx int, timeout time.Duration) error {
	want := len(msg.EffectiveBytes())
	data, rerr := conn.Receive(want, timeout)

	hc := processor.HookContext{
		Iteration:             rs.Iteration,
		SubcomponentIndex:     -1,
		OriginalSubcomponents: msg.OriginalSubcomponentBytes(),
		AlteredSubcomponents:  msg.AlteredSubcomponentBytes(),
	}
	hookErr := d.Message.PostReceiveProcess(data, hc)
	rs.ReceivedBytes[idx] = data

	if d.dumpDirFor(rs.Seed) != "" {
		d.persistDump(rs.Iteration, "inbound", rs.Seed, false, data)
	}
	if hookErr != nil {
		return fmt.Errorf("message %d: %w", idx, hookErr)
	}
	if rerr != nil {
		return fmt.Errorf("message %d: %w", idx, rerr)
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
