package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const msgFreeTierText = "Free mode currently supports text files only. Use Pro for PDF files."

// Dispatcher routes a request to the provider configured for its tier.
type Dispatcher struct {
	providers map[Tier]Provider
	timeout   time.Duration
}

// NewDispatcher builds a Dispatcher from one provider per tier.
func NewDispatcher(pro, free Provider, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		providers: map[Tier]Provider{TierPro: pro, TierFree: free},
		timeout:   timeout,
	}
}

// DefaultModel returns the model used for tier when the caller names none.
func (d *Dispatcher) DefaultModel(tier Tier) string {
	if p, ok := d.providers[tier]; ok && p != nil {
		return p.ModelID()
	}
	return ""
}

// Generate sends req to the tier's provider and returns the reply. An
// empty reply is reported as *EmptyReplyError. The free tier never accepts
// file parts, whichever provider backs it.
func (d *Dispatcher) Generate(ctx context.Context, tier Tier, req Request) (*Response, error) {
	p, ok := d.providers[tier]
	if !ok || p == nil {
		return nil, fmt.Errorf("no provider configured for tier %q", tier)
	}
	if tier == TierFree && len(req.Files) > 0 {
		return nil, &ConfigError{Provider: p.Name(), Msg: msgFreeTierText}
	}
	if strings.TrimSpace(req.Model) == "" {
		req.Model = p.ModelID()
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Text = strings.TrimSpace(resp.Text)
	if resp.Text == "" {
		return nil, &EmptyReplyError{Provider: p.Name()}
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	return resp, nil
}
