package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"afterglow/internal/gallery"
	"afterglow/internal/staging"
	"afterglow/internal/thumbnail"
)

// Options configures a Service.
type Options struct {
	// RemoteRoot is the normalized key prefix everything is published under.
	RemoteRoot string
	// DistributionID enables CDN invalidation when non-empty.
	DistributionID string
	// StagingDir holds per-plan scratch directories. Empty means the system
	// temp directory.
	StagingDir string
	// SiteAssets are published at the remote root. May be nil.
	SiteAssets fs.FS
}

// Service previews and executes publishes of one workspace.
type Service struct {
	store   ObjectStore
	cdn     Invalidator
	fsmgr   FilesystemManager
	plans   *PlanStore
	thumbs  *thumbnail.Worker
	emitter Emitter
	logger  Logger
	clock   Clock
	idgen   IDGenerator
	opts    Options
}

// NewService creates a Service and starts its thumbnail worker. Call Close
// when done.
func NewService(store ObjectStore, cdn Invalidator, fsmgr FilesystemManager, emitter Emitter, logger Logger, clock Clock, idgen IDGenerator, opts Options) *Service {
	opts.RemoteRoot = NormalizeRoot(opts.RemoteRoot)
	return &Service{
		store:   store,
		cdn:     cdn,
		fsmgr:   fsmgr,
		plans:   NewPlanStore(),
		thumbs:  thumbnail.NewWorker(),
		emitter: emitter,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
		opts:    opts,
	}
}

// Plans exposes the plan registry.
func (s *Service) Plans() *PlanStore {
	return s.plans
}

// Close stops the thumbnail worker and discards every outstanding plan.
func (s *Service) Close() error {
	var firstErr error
	for _, id := range s.plans.IDs() {
		if err := s.plans.Remove(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.thumbs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Thumbnails generates missing or stale thumbnails for the workspace and
// prunes cached ones nothing references any more.
func (s *Service) Thumbnails(ctx context.Context, root string) (thumbnail.Results, error) {
	idx, err := gallery.LoadIndex(root)
	if err != nil {
		return thumbnail.Results{}, err
	}
	specs := thumbnail.BuildSpecs(root, idx, s.opts.RemoteRoot)
	res, err := s.generate(ctx, specs)
	if err != nil {
		return res, err
	}
	thumbnail.CleanupStale(thumbnail.CacheRoot(root), specs, s.logger)
	return res, nil
}

// Preview computes a plan for publishing the workspace at root and stores
// it for a later Execute.
func (s *Service) Preview(ctx context.Context, root string) (*Plan, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}

	idx, err := gallery.LoadIndex(root)
	if err != nil {
		return nil, err
	}
	refs, err := CollectReferences(s.fsmgr, root, idx)
	if err != nil {
		return nil, fmt.Errorf("collecting references: %w", err)
	}
	specs := thumbnail.BuildSpecs(root, idx, s.opts.RemoteRoot)
	s.logger.Info("previewing publish", "workspace", root, "files", len(refs), "thumbnails", len(specs))

	// Thumbnails are CPU-bound on their own thread; listing is network-bound.
	var (
		results thumbnail.Results
		remote  map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results, err = s.generate(gctx, specs)
		return err
	})
	g.Go(func() error {
		var err error
		remote, err = listRemote(gctx, s.store, s.opts.RemoteRoot)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	thumbnail.CleanupStale(thumbnail.CacheRoot(root), specs, s.logger)

	var generated []thumbnail.Spec
	for _, spec := range specs {
		if results.Failed(spec) {
			continue
		}
		if _, err := os.Stat(spec.DestPath); err != nil {
			continue
		}
		generated = append(generated, spec)
	}

	area, err := staging.NewArea(s.opts.StagingDir, 0)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.artifacts(root, idx, refs, generated, area)
	if err != nil {
		area.Close()
		return nil, err
	}

	plan, err := Classify(s.fsmgr, artifacts, remote, s.opts.RemoteRoot)
	if err != nil {
		area.Close()
		return nil, fmt.Errorf("building plan: %w", err)
	}
	plan.ID = s.idgen.New()
	plan.CreatedAt = s.clock.Now()
	s.plans.Put(plan, area.Close)

	s.logger.Info("plan created", "plan", plan.ID, "upload", len(plan.ToUpload), "delete", len(plan.ToDelete), "unchanged", plan.Unchanged)
	return plan, nil
}

// Execute applies a previously previewed plan.
func (s *Service) Execute(ctx context.Context, planID string) (*Result, error) {
	plan, err := s.plans.Get(planID)
	if err != nil {
		return nil, err
	}
	exec := NewExecutor(s.store, s.cdn, s.opts.DistributionID, s.plans, s.fsmgr, s.emitter, s.logger, s.idgen)
	return exec.Run(ctx, plan)
}

// Cancel asks a running Execute of planID to stop at its next check.
func (s *Service) Cancel(planID string) error {
	return s.plans.Cancel(planID)
}

// Discard drops a plan that will not be executed.
func (s *Service) Discard(planID string) error {
	return s.plans.Remove(planID)
}

func (s *Service) generate(ctx context.Context, specs []thumbnail.Spec) (thumbnail.Results, error) {
	if len(specs) == 0 {
		s.emitter.Emit(ThumbnailProgressEvent{})
		return thumbnail.Results{}, nil
	}
	res, err := s.thumbs.Run(ctx, specs, func(current, total int, spec thumbnail.Spec) {
		s.emitter.Emit(ThumbnailProgressEvent{Current: current, Total: total, Filename: spec.ThumbFilename})
	})
	if err != nil {
		return res, fmt.Errorf("generating thumbnails: %w", err)
	}
	for _, f := range res.Failures {
		s.logger.Warn("thumbnail generation failed", "source", f.Source, "error", f.Err)
	}
	s.logger.Info("thumbnails ready", "generated", res.Generated, "skipped", res.Skipped, "failed", len(res.Failures))
	return res, nil
}

// artifacts assembles every local file the plan compares against the
// remote: referenced originals, generated thumbnails, rewritten metadata
// and site assets. Rewritten files replace the originals at the same key.
func (s *Service) artifacts(root string, idx *gallery.Index, refs []*Path, specs []thumbnail.Spec, area *staging.Area) ([]Artifact, error) {
	byKey := make(map[string]Artifact)

	for _, p := range refs {
		rel, err := filepath.Rel(root, p.String())
		if err != nil {
			return nil, fmt.Errorf("relativizing %s: %w", p, err)
		}
		key := RemoteKey(s.opts.RemoteRoot, filepath.ToSlash(rel))
		byKey[key] = Artifact{LocalPath: p.String(), Key: key}
	}
	for _, spec := range specs {
		byKey[spec.RemoteKey] = Artifact{LocalPath: spec.DestPath, Key: spec.RemoteKey}
	}

	rw, err := RewriteMetadata(root, idx, specs)
	if err != nil {
		return nil, err
	}
	stage := func(rel string, data []byte) error {
		local, err := area.Write(rel, data)
		if err != nil {
			return fmt.Errorf("staging %s: %w", rel, err)
		}
		key := s.opts.RemoteRoot + rel
		byKey[key] = Artifact{LocalPath: local, Key: key}
		return nil
	}

	if err := stage("galleries/"+gallery.IndexFile, rw.Index); err != nil {
		return nil, err
	}
	for slug, data := range rw.Details {
		if err := stage("galleries/"+slug+"/"+gallery.DetailFile, data); err != nil {
			return nil, err
		}
	}
	if err := stage("galleries/"+gallery.SearchIndexFile, rw.SearchIndex); err != nil {
		return nil, err
	}

	if s.opts.SiteAssets != nil {
		err := fs.WalkDir(s.opts.SiteAssets, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := fs.ReadFile(s.opts.SiteAssets, p)
			if err != nil {
				return fmt.Errorf("reading site asset %s: %w", p, err)
			}
			return stage(p, data)
		})
		if err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Artifact, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out, nil
}
