package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finzhq/finz/internal/store"
	log "github.com/sirupsen/logrus"
)

var ErrProjectNotFound = errors.New("project not found")

const (
	projectsPK  = "PROJECTS"
	dateLayout  = "2006-01-02"
	projectSKPr = "PROJECT#"
)

type ProjectRepo interface {
	Store(ctx context.Context, p Project) error
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context) ([]Project, error)
}

type ProjectRepoImpl struct {
	store store.Store
}

func NewProjectRepo(s store.Store) *ProjectRepoImpl {
	return &ProjectRepoImpl{store: s}
}

// projectDoc is the persisted shape; dates travel as YYYY-MM-DD strings.
type projectDoc struct {
	ID         string `json:"project_id"`
	Name       string `json:"name"`
	StartDate  string `json:"start_date,omitempty"`
	BaselineID string `json:"baseline_id,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

func toDoc(p Project) projectDoc {
	doc := projectDoc{
		ID:         p.ID,
		Name:       p.Name,
		BaselineID: p.BaselineID,
		Currency:   p.Currency,
	}
	if p.StartDate != nil {
		doc.StartDate = p.StartDate.Format(dateLayout)
	}
	return doc
}

func fromDoc(doc projectDoc) (Project, error) {
	p := Project{
		ID:         doc.ID,
		Name:       doc.Name,
		BaselineID: doc.BaselineID,
		Currency:   doc.Currency,
	}
	if doc.StartDate != "" {
		startDate, err := time.Parse(dateLayout, doc.StartDate)
		if err != nil {
			return Project{}, fmt.Errorf("could not parse start date of project %s: %w", doc.ID, err)
		}
		p.StartDate = &startDate
	}
	return p, nil
}

func (r *ProjectRepoImpl) Store(ctx context.Context, p Project) error {
	item, err := store.NewItem(projectsPK, projectSKPr+p.ID, toDoc(p))
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not store project %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProjectRepoImpl) Get(ctx context.Context, id string) (Project, error) {
	item, err := r.store.Get(ctx, projectsPK, projectSKPr+id)
	if errors.Is(err, store.ErrNotFound) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("could not get project %s: %w", id, err)
	}
	var doc projectDoc
	if err := json.Unmarshal(item.Payload, &doc); err != nil {
		return Project{}, fmt.Errorf("could not unmarshal project %s: %w", id, err)
	}
	return fromDoc(doc)
}

func (r *ProjectRepoImpl) List(ctx context.Context) ([]Project, error) {
	items, err := store.QueryAll(ctx, r.store, projectsPK, projectSKPr)
	if err != nil {
		return nil, fmt.Errorf("could not list projects: %w", err)
	}

	projects := make([]Project, 0, len(items))
	for _, item := range items {
		var doc projectDoc
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			log.Warnf("skipping malformed project document %s/%s: %v", item.PK, item.SK, err)
			continue
		}
		p, err := fromDoc(doc)
		if err != nil {
			log.Warnf("skipping project %s with bad start date: %v", doc.ID, err)
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}
