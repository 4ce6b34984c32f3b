package payment

import (
	"context"
	"fmt"
	"sync/atomic"
)

// LocalGateway is an in-process Gateway for development and tests: it
// accepts every intent and hands back a sequential reference.
type LocalGateway struct {
	seq atomic.Int64
}

// NewLocalGateway creates a LocalGateway.
func NewLocalGateway() *LocalGateway {
	return &LocalGateway{}
}

func (g *LocalGateway) CreateIntent(_ context.Context, intent Intent) (string, error) {
	return fmt.Sprintf("local_%s_%d", intent.Receipt, g.seq.Add(1)), nil
}

var _ Gateway = (*LocalGateway)(nil)
