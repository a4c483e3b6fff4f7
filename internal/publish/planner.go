package publish

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Artifact is a local file destined for a remote key.
type Artifact struct {
	LocalPath string
	Key       string
}

// SyncFile is one upload in a plan.
type SyncFile struct {
	LocalPath   string `json:"localPath"`
	RemoteKey   string `json:"remoteKey"`
	SizeBytes   int64  `json:"sizeBytes"`
	ContentType string `json:"contentType"`
}

// Plan is a point-in-time diff between the local artifacts and the remote
// inventory. It is never modified after creation.
type Plan struct {
	ID         string     `json:"planId"`
	RemoteRoot string     `json:"remoteRoot"`
	ToUpload   []SyncFile `json:"toUpload"`
	ToDelete   []string   `json:"toDelete"`
	Unchanged  int        `json:"unchanged"`
	TotalFiles int        `json:"totalFiles"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Transfers returns the number of uploads and deletes the plan performs.
func (p *Plan) Transfers() int {
	return len(p.ToUpload) + len(p.ToDelete)
}

// BuildPlan lists the remote root and classifies artifacts against it.
func BuildPlan(ctx context.Context, fsmgr FilesystemManager, store ObjectStore, artifacts []Artifact, root string) (*Plan, error) {
	remote, err := listRemote(ctx, store, root)
	if err != nil {
		return nil, err
	}
	return Classify(fsmgr, artifacts, remote, root)
}

// listRemote lists every object under root. Failures are reported as a
// list RemoteError.
func listRemote(ctx context.Context, store ObjectStore, root string) (map[string]string, error) {
	remote, err := store.List(ctx, root)
	if err != nil {
		return nil, &RemoteError{Op: "list", Key: root, Err: err}
	}
	return remote, nil
}

// Classify splits artifacts into uploads and unchanged files by comparing
// their MD5 with the remote fingerprint, and proposes for deletion every
// managed remote key without a local artifact. A composite remote
// fingerprint always means upload. When two artifacts share a key the later
// one wins. Uploads and deletes are ordered by key.
func Classify(fsmgr FilesystemManager, artifacts []Artifact, remote map[string]string, root string) (*Plan, error) {
	byKey := make(map[string]Artifact, len(artifacts))
	for _, a := range artifacts {
		byKey[a.Key] = a
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	plan := &Plan{
		RemoteRoot: root,
		ToUpload:   []SyncFile{},
		ToDelete:   []string{},
	}

	for _, key := range keys {
		a := byKey[key]
		p, err := fsmgr.Resolve(a.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", a.LocalPath, err)
		}
		sum, err := Fingerprint(fsmgr, p)
		if err != nil {
			return nil, err
		}

		if etag, ok := remote[key]; ok && !IsComposite(etag) && etag == sum {
			plan.Unchanged++
			continue
		}
		plan.ToUpload = append(plan.ToUpload, SyncFile{
			LocalPath:   p.String(),
			RemoteKey:   key,
			SizeBytes:   p.Size(),
			ContentType: ContentType(key),
		})
	}

	for key := range remote {
		if _, ok := byKey[key]; ok {
			continue
		}
		if IsManaged(root, key) {
			plan.ToDelete = append(plan.ToDelete, key)
		}
	}
	sort.Strings(plan.ToDelete)

	plan.TotalFiles = len(plan.ToUpload) + len(plan.ToDelete) + plan.Unchanged
	return plan, nil
}
