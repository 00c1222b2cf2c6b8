package marketplace

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/okian/agentpulse/pkg/logger"
	"github.com/okian/agentpulse/pkg/metrics"
)

// Resolution steps, used as metric labels.
const (
	stepNumeric    = "numeric"
	stepProfileURL = "profile_url"
	stepExactName  = "exact_name"
	stepContains   = "contains_name"
	stepWallet     = "wallet"
)

var (
	numericRef = regexp.MustCompile(`^\d+$`)
	profileRef = regexp.MustCompile(`/(?:agent|acp/agent-details)/(\d+)(?:[/?#]|$)`)
	walletRef  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// Resolve maps a loose agent reference to a canonical agent ID.
//
// Steps, first hit wins: numeric ID, profile URL, exact name, substring name,
// then the fallback wallet. A reference that is itself a wallet address is
// looked up as one. Malformed wallets are ignored. When nothing matches the
// error is a *ResolutionError.
func (c *Client) Resolve(ctx context.Context, ref, fallbackWallet string) (string, error) {
	ref = strings.TrimSpace(ref)
	log := c.logger.With(logger.String("reference", ref))

	if ref != "" {
		if numericRef.MatchString(ref) {
			metrics.RecordResolution(stepNumeric)
			return ref, nil
		}
		if m := profileRef.FindStringSubmatch(ref); m != nil {
			metrics.RecordResolution(stepProfileURL)
			return m[1], nil
		}
		if walletRef.MatchString(ref) {
			if id, ok := c.byWallet(ctx, ref); ok {
				metrics.RecordResolution(stepWallet)
				return id, nil
			}
		} else {
			if id, ok := c.byExactName(ctx, ref); ok {
				metrics.RecordResolution(stepExactName)
				log.Debug(ctx, "resolved by exact name", logger.String("agent_id", id))
				return id, nil
			}
			if id, ok := c.byContainedName(ctx, ref); ok {
				metrics.RecordResolution(stepContains)
				log.Debug(ctx, "resolved by name search", logger.String("agent_id", id))
				return id, nil
			}
		}
	}

	wallet := strings.TrimSpace(fallbackWallet)
	if walletRef.MatchString(wallet) && !strings.EqualFold(wallet, ref) {
		if id, ok := c.byWallet(ctx, wallet); ok {
			metrics.RecordResolution(stepWallet)
			log.Debug(ctx, "resolved by client wallet", logger.String("agent_id", id))
			return id, nil
		}
	}

	log.Info(ctx, "agent reference not resolved")
	return "", &ResolutionError{Reference: ref}
}

func (c *Client) byExactName(ctx context.Context, name string) (string, bool) {
	agents := c.searchDirectory(ctx, "filters[name][$eq]", name)
	switch len(agents) {
	case 0:
		return "", false
	case 1:
		return string(agents[0].ID), agents[0].ID != ""
	}
	best := pickBusiest(agents)
	return string(best.ID), best.ID != ""
}

func (c *Client) byContainedName(ctx context.Context, name string) (string, bool) {
	agents := c.searchDirectory(ctx, "filters[name][$containsi]", name)
	if len(agents) == 0 {
		return "", false
	}
	for _, a := range agents {
		if strings.EqualFold(strings.TrimSpace(str(a.Name)), name) && a.ID != "" {
			return string(a.ID), true
		}
	}
	return string(agents[0].ID), agents[0].ID != ""
}

func (c *Client) byWallet(ctx context.Context, wallet string) (string, bool) {
	for _, field := range []string{"filters[walletAddress][$eqi]", "filters[ownerAddress][$eqi]"} {
		for _, a := range c.searchDirectory(ctx, field, wallet) {
			if a.ID != "" {
				return string(a.ID), true
			}
		}
	}
	return "", false
}

// searchDirectory queries the agent directory. Failures read as no results.
func (c *Client) searchDirectory(ctx context.Context, filter, v string) []directoryAgent {
	q := url.Values{}
	q.Set(filter, v)
	var resp envelope[[]directoryAgent]
	if err := c.getJSON(ctx, endpointDirectory, withQuery(join(c.marketplaceURL, "api", "agents"), q),
		c.requestTimeout, &resp); err != nil {
		c.logger.Debug(ctx, "directory search failed", logger.String("filter", filter), logger.Error(err))
		return nil
	}
	return resp.Data
}

// pickBusiest chooses among same-named agents: more completed jobs wins,
// then more revenue. The first listed wins a full tie.
func pickBusiest(agents []directoryAgent) directoryAgent {
	best := agents[0]
	for _, a := range agents[1:] {
		aj, bj := count(a.SuccessfulJobCount), count(best.SuccessfulJobCount)
		if aj > bj || (aj == bj && value(a.Revenue) > value(best.Revenue)) {
			best = a
		}
	}
	return best
}
