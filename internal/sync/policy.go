package sync

import (
	"context"
	"errors"

	"github.com/marcus/quotes/internal/models"
)

var errUndecodableRemote = errors.New("remote snapshot does not decode")

// ServerPrecedence adopts the remote collection whenever it differs.
type ServerPrecedence struct {
	replica Replica
}

func (ServerPrecedence) Policy() models.Policy { return models.PolicyServer }

func (s ServerPrecedence) ResolveDivergence(ctx context.Context, d Divergence) (bool, error) {
	if d.RemoteCollection == nil {
		return false, errUndecodableRemote
	}
	if err := s.replica.Adopt(d.RemoteCollection); err != nil {
		return false, err
	}
	return true, nil
}

// Manual leaves every divergence for an explicit Decision.
type Manual struct{}

func (Manual) Policy() models.Policy { return models.PolicyManual }

func (Manual) ResolveDivergence(ctx context.Context, d Divergence) (bool, error) {
	return false, nil
}

// StrategyFor returns the strategy implementing policy. Unknown policies
// fall back to server precedence.
func StrategyFor(policy models.Policy, replica Replica) Strategy {
	if policy == models.PolicyManual {
		return Manual{}
	}
	return ServerPrecedence{replica: replica}
}
