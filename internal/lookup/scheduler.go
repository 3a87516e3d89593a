package lookup

import (
	"context"

	"github.com/nao1215/vtlookup/internal/model"
	"golang.org/x/sync/errgroup"
)

// typeGroup is the input rows of one canonical type, in input order.
type typeGroup struct {
	kind kind
	rows []model.InputRow
}

// processGroups runs lookupType for every group.
//
// With concurrency 1 the groups run in order on the calling goroutine.
// Otherwise errgroup.SetLimit bounds how many run at once. Groups never
// share a batch, and the table serializes their appends.
func (s *Session) processGroups(ctx context.Context, groups []typeGroup) error {
	if s.concurrency <= 1 || len(groups) <= 1 {
		for _, g := range groups {
			if err := s.lookupType(ctx, g); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, group := range groups {
		g.Go(func() error {
			s.logger.Debug("processing type",
				"run", s.id,
				"type", group.kind.entry.Type.String(),
				"rows", len(group.rows),
			)
			return s.lookupType(ctx, group)
		})
	}

	return g.Wait()
}
