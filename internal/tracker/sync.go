package tracker

import (
	"context"

	"github.com/dmitrijs2005/cargotrack/internal/ingest"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"golang.org/x/sync/errgroup"
)

// Sync runs one full cycle: token, remote handle, collection resolution,
// concurrent fetch, ingestion and snapshot replacement. A call made while a
// cycle is in flight returns nil without doing anything. On failure the
// snapshot is left untouched and a *SyncError is returned.
func (s *Service) Sync(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Syncing {
		s.mu.Unlock()
		s.logger.Info(ctx, "sync already in progress, skipping")
		return nil
	}
	s.state = Syncing
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	start := s.now()
	snap, committed, err := s.sync(ctx)
	s.recorder.ObserveSync(s.now().Sub(start), err)
	if err != nil {
		s.logger.Error(ctx, "sync failed", "error", err)
		return err
	}
	if !committed {
		s.logger.Info(ctx, "logged out during sync, result dropped")
		return nil
	}

	counts := snap.Counts()
	s.recorder.SetEntities(counts)
	s.logger.Info(ctx, "sync completed",
		"sites", counts[models.KindSite],
		"trucks", counts[models.KindTruck],
		"drivers", counts[models.KindDriver],
		"users", counts[models.KindUser],
		"loads", counts[models.KindLoad],
	)
	for _, h := range s.hooks {
		h(ctx, snap)
	}
	return nil
}

func (s *Service) sync(ctx context.Context) (models.Snapshot, bool, error) {
	token, err := s.identity.Token(ctx)
	if err != nil {
		return models.Snapshot{}, false, &SyncError{Stage: StageToken, Err: err}
	}

	client, err := s.factory(token)
	if err != nil {
		return models.Snapshot{}, false, &SyncError{Stage: StageConnect, Err: err}
	}
	if err := client.Resolve(ctx, s.refs()...); err != nil {
		return models.Snapshot{}, false, &SyncError{Stage: StageResolve, Err: err}
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	s.store.BeginIngest()
	batch, err := s.fetch(ctx, client)
	if err != nil {
		s.store.AbortIngest()
		return models.Snapshot{}, false, err
	}

	snap, user := ingest.Ingest(batch, s.session.Current(), s.now())
	if !s.store.CommitIngest(snap) {
		s.mu.Lock()
		s.client = nil
		s.mu.Unlock()
		return models.Snapshot{}, false, nil
	}

	if user != nil {
		if err := s.session.Set(ctx, user); err != nil {
			s.logger.Warn(ctx, "failed to persist refreshed session", "error", err)
		}
	}
	return s.store.Snapshot(), true, nil
}

// fetch lists every collection concurrently. The first failure cancels the
// remaining requests.
func (s *Service) fetch(ctx context.Context, client remote.Client) (ingest.Batch, error) {
	results := make([][]remote.Record, len(models.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.Kinds {
		ref := s.ref(kind)
		g.Go(func() error {
			recs, err := client.List(gctx, ref)
			if err != nil {
				return &SyncError{Stage: StageFetch, Collection: kind, Err: err}
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ingest.Batch{}, err
	}

	var b ingest.Batch
	for i, kind := range models.Kinds {
		b.Set(kind, results[i])
	}
	return b, nil
}
