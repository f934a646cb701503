// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"context"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/mutation"
	"github.com/cisco-talos/mutiny/pkg/processor"
)

// buildSendPayload runs the pre-fuzz/mutate/pre-send pipeline for one
// outbound message (spec.md §4.6.2) and returns the final wire payload.
// It mutates msg's subcomponents in place as it goes, so callers that
// need the final per-subcomponent state can read it back off msg.
func (d *Driver) buildSendPayload(ctx context.Context, msg *fuzzdata.Message, iteration, seed int) ([]byte, error) {
	orig := msg.OriginalSubcomponentBytes()

	if len(msg.Subcomponents) > 1 {
		for j, sc := range msg.Subcomponents {
			hc := processor.HookContext{
				Iteration:             iteration,
				SubcomponentIndex:     j,
				Fuzzed:                sc.IsFuzzed,
				OriginalSubcomponents: orig,
				AlteredSubcomponents:  msg.AlteredSubcomponentBytes(),
			}
			out, err := d.Message.PreFuzzSubcomponentProcess(sc.Altered, hc)
			if err != nil {
				return nil, err
			}
			sc.Altered = out
		}

		if seed != mutation.NoMutation {
			for _, sc := range msg.Subcomponents {
				if !sc.IsFuzzed {
					continue
				}
				mutated, err := d.Engine.Mutate(ctx, sc.Altered, seed)
				if err != nil {
					return nil, err
				}
				sc.Altered = mutated
			}
		}

		for j, sc := range msg.Subcomponents {
			hc := processor.HookContext{
				Iteration:             iteration,
				SubcomponentIndex:     j,
				Fuzzed:                sc.IsFuzzed,
				OriginalSubcomponents: orig,
				AlteredSubcomponents:  msg.AlteredSubcomponentBytes(),
			}
			out, err := d.Message.PreSendSubcomponentProcess(sc.Altered, hc)
			if err != nil {
				return nil, err
			}
			sc.Altered = out
		}
	} else {
		sc := msg.Subcomponents[0]
		hc := processor.HookContext{
			Iteration:             iteration,
			SubcomponentIndex:     -1,
			Fuzzed:                sc.IsFuzzed,
			OriginalSubcomponents: orig,
			AlteredSubcomponents:  msg.AlteredSubcomponentBytes(),
		}
		out, err := d.Message.PreFuzzProcess(sc.Altered, hc)
		if err != nil {
			return nil, err
		}
		sc.Altered = out

		if seed != mutation.NoMutation && sc.IsFuzzed {
			mutated, err := d.Engine.Mutate(ctx, sc.Altered, seed)
			if err != nil {
				return nil, err
			}
			sc.Altered = mutated
		}
	}

	final := msg.EffectiveBytes()
	hc := processor.HookContext{
		Iteration:             iteration,
		SubcomponentIndex:     -1,
		Fuzzed:                msg.IsFuzzedMessage(),
		OriginalSubcomponents: orig,
		AlteredSubcomponents:  msg.AlteredSubcomponentBytes(),
	}
	return d.Message.PreSendProcess(final, hc)
}
