package resolver

import (
	"context"
	"errors"
)

// NoPrompt never has a value; required fields it is asked about end up unresolved.
type NoPrompt struct{}

func (NoPrompt) Prompt(ctx context.Context, q Question) (Reply, error) { return Reply{}, nil }

// Chain asks each prompter in turn until one returns a value. The Resolver asks the
// members itself, so a reply rejected for the field's kind falls through to the next one.
type Chain []Prompter

func (c Chain) Prompt(ctx context.Context, q Question) (Reply, error) {
	var errs []error
	for _, p := range c {
		reply, err := p.Prompt(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return Reply{}, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if reply.Value != "" {
			return reply, nil
		}
	}
	return Reply{}, errors.Join(errs...)
}

// members flattens nested chains into the prompters to ask, in order.
func members(p Prompter) []Prompter {
	switch p := p.(type) {
	case nil:
		return nil
	case Chain:
		var out []Prompter
		for _, m := range p {
			out = append(out, members(m)...)
		}
		return out
	}
	return []Prompter{p}
}
