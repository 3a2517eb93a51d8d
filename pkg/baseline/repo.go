package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finzhq/finz/internal/store"
	log "github.com/sirupsen/logrus"
)

var ErrBaselineNotFound = errors.New("baseline not found")

type Repo interface {
	Store(ctx context.Context, projectID string, b Baseline) error
	Get(ctx context.Context, projectID, baselineID string) (Baseline, error)
	// GetCurrent resolves the baseline driving month-index resolution for a
	// project. At most one baseline is current.
	GetCurrent(ctx context.Context, projectID string) (Baseline, error)
	SetCurrent(ctx context.Context, projectID, baselineID string) error
}

type RepoImpl struct {
	store store.Store
}

func NewRepo(s store.Store) *RepoImpl {
	return &RepoImpl{store: s}
}

func projectPK(projectID string) string {
	return "PROJECT#" + projectID
}

func baselineSK(baselineID string) string {
	return "BASELINE#" + baselineID
}

const currentPointerSK = "BASELINE#CURRENT"

type currentPointer struct {
	BaselineID string `json:"baseline_id"`
}

func (r *RepoImpl) Store(ctx context.Context, projectID string, b Baseline) error {
	item, err := store.NewItem(projectPK(projectID), baselineSK(b.ID), b)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not store baseline %s: %w", b.ID, err)
	}
	return nil
}

func (r *RepoImpl) Get(ctx context.Context, projectID, baselineID string) (Baseline, error) {
	item, err := r.store.Get(ctx, projectPK(projectID), baselineSK(baselineID))
	if errors.Is(err, store.ErrNotFound) {
		return Baseline{}, ErrBaselineNotFound
	}
	if err != nil {
		return Baseline{}, fmt.Errorf("could not get baseline %s: %w", baselineID, err)
	}
	var b Baseline
	if err := json.Unmarshal(item.Payload, &b); err != nil {
		return Baseline{}, fmt.Errorf("could not unmarshal baseline %s: %w", baselineID, err)
	}
	return b, nil
}

func (r *RepoImpl) GetCurrent(ctx context.Context, projectID string) (Baseline, error) {
	item, err := r.store.Get(ctx, projectPK(projectID), currentPointerSK)
	if errors.Is(err, store.ErrNotFound) {
		return Baseline{}, ErrBaselineNotFound
	}
	if err != nil {
		return Baseline{}, fmt.Errorf("could not get current baseline pointer for %s: %w", projectID, err)
	}
	var pointer currentPointer
	if err := json.Unmarshal(item.Payload, &pointer); err != nil {
		return Baseline{}, fmt.Errorf("could not unmarshal baseline pointer for %s: %w", projectID, err)
	}
	return r.Get(ctx, projectID, pointer.BaselineID)
}

func (r *RepoImpl) SetCurrent(ctx context.Context, projectID, baselineID string) error {
	if _, err := r.Get(ctx, projectID, baselineID); err != nil {
		return err
	}
	item, err := store.NewItem(projectPK(projectID), currentPointerSK, currentPointer{BaselineID: baselineID})
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not set current baseline for %s: %w", projectID, err)
	}
	log.Debugf("baseline %s is now current for project %s", baselineID, projectID)
	return nil
}
