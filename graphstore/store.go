package graphstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/faqflow/retrieval"
	"github.com/BaSui01/faqflow/types"
)

// Entity is a node of the medical knowledge graph. IDs are stable slugs
// (e.g. "type_2_diabetes") usable as citation provenance.
type Entity struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"index;not null"`
	Type        string `gorm:"index"`
	Description string
}

// Alias is an alternative name for an entity ("flu" for "influenza").
type Alias struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	EntityID string `gorm:"index;not null"`
	Name     string `gorm:"index;not null"`
}

// Relation is a typed directed edge between entities.
type Relation struct {
	ID     uint    `gorm:"primaryKey;autoIncrement"`
	FromID string  `gorm:"index;not null"`
	ToID   string  `gorm:"index;not null"`
	Type   string  `gorm:"index;not null"`
	Weight float64 `gorm:"default:1"`
}

// Scores assigned to the different match grades. One-hop neighbors of a
// direct match inherit the decayed score.
const (
	scoreNameMatch  = 0.9
	scoreAliasMatch = 0.8
	depthDecay      = 0.85
)

// Store implements retrieval.GraphAdapter on an embedded sqlite database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New opens (or creates) the store at the given sqlite DSN and migrates the
// schema. Use ":memory:" for an ephemeral store.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	return NewWithDB(db, logger)
}

// NewWithDB wraps an existing gorm handle, migrating the schema.
func NewWithDB(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&Entity{}, &Alias{}, &Relation{}); err != nil {
		return nil, fmt.Errorf("migrate graph store: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "graph_store")),
	}, nil
}

// AddEntity inserts or updates an entity with optional aliases.
func (s *Store) AddEntity(ctx context.Context, entity Entity, aliases ...string) error {
	entity.Name = strings.ToLower(entity.Name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entity).Error; err != nil {
			return err
		}
		for _, alias := range aliases {
			a := Alias{EntityID: entity.ID, Name: strings.ToLower(alias)}
			if err := tx.Where("entity_id = ? AND name = ?", a.EntityID, a.Name).
				FirstOrCreate(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddRelation inserts a typed edge. Zero weight defaults to 1.
func (s *Store) AddRelation(ctx context.Context, fromID, toID, relType string, weight float64) error {
	if weight <= 0 {
		weight = 1
	}
	rel := Relation{FromID: fromID, ToID: toID, Type: relType, Weight: weight}
	return s.db.WithContext(ctx).
		Where("from_id = ? AND to_id = ? AND type = ?", fromID, toID, relType).
		FirstOrCreate(&rel).Error
}

// Search finds entities whose name or alias occurs in the query text, then
// expands one hop of relations from each direct match. The optional
// "entity" filter pins the search to one entity name.
func (s *Store) Search(ctx context.Context, queryText string, filters retrieval.Filters, topK int) ([]types.CandidateRecord, error) {
	if topK <= 0 {
		topK = 10
	}
	needle := strings.ToLower(queryText)
	if pinned := filters["entity"]; pinned != "" {
		needle = strings.ToLower(pinned)
	}

	matched := make(map[string]float64)

	var entities []Entity
	if err := s.db.WithContext(ctx).
		Where("instr(?, name) > 0", needle).
		Find(&entities).Error; err != nil {
		return nil, s.unavailable(err)
	}
	for _, e := range entities {
		matched[e.ID] = scoreNameMatch
	}

	var aliases []Alias
	if err := s.db.WithContext(ctx).
		Where("instr(?, name) > 0", needle).
		Find(&aliases).Error; err != nil {
		return nil, s.unavailable(err)
	}
	for _, a := range aliases {
		if matched[a.EntityID] < scoreAliasMatch {
			matched[a.EntityID] = scoreAliasMatch
		}
	}

	if len(matched) == 0 {
		return nil, nil
	}

	candidates := make([]types.CandidateRecord, 0, topK)
	for id, score := range matched {
		entity, err := s.entity(ctx, id)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, s.record(entity, score))

		neighbors, err := s.Related(ctx, id, nil, 1)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			n.Score = types.ClampScore(n.Score * score)
			candidates = append(candidates, n)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Provenance < candidates[j].Provenance
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	s.logger.Debug("graph search",
		zap.Int("direct_matches", len(matched)),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}

// Related walks relations breadth-first from an entity, following edges in
// both directions, up to maxDepth hops. Scores decay by depth and edge
// weight. The starting entity itself is not returned.
func (s *Store) Related(ctx context.Context, entityID string, relationTypes []string, maxDepth int) ([]types.CandidateRecord, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}

	visited := map[string]bool{entityID: true}
	frontier := []string{entityID}
	var out []types.CandidateRecord

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		query := s.db.WithContext(ctx).
			Where("from_id IN ? OR to_id IN ?", frontier, frontier)
		if len(relationTypes) > 0 {
			query = query.Where("type IN ?", relationTypes)
		}

		var edges []Relation
		if err := query.Find(&edges).Error; err != nil {
			return nil, s.unavailable(err)
		}

		var next []string
		for _, edge := range edges {
			otherID := edge.ToID
			if visited[otherID] {
				otherID = edge.FromID
			}
			if visited[otherID] {
				continue
			}
			visited[otherID] = true

			entity, err := s.entity(ctx, otherID)
			if err != nil {
				return nil, err
			}

			score := edge.Weight
			for d := 0; d < depth; d++ {
				score *= depthDecay
			}
			rec := s.record(entity, types.ClampScore(score))
			rec.Content = fmt.Sprintf("%s %s %s: %s", edge.FromID, edge.Type, edge.ToID, entity.Description)
			out = append(out, rec)
			next = append(next, otherID)
		}
		frontier = next
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Provenance < out[j].Provenance
	})
	return out, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) entity(ctx context.Context, id string) (Entity, error) {
	var entity Entity
	if err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return Entity{}, s.unavailable(err)
	}
	return entity, nil
}

func (s *Store) record(entity Entity, score float64) types.CandidateRecord {
	content := entity.Name
	if entity.Description != "" {
		content = entity.Name + ": " + entity.Description
	}
	return types.CandidateRecord{
		Source:     types.SourceGraph,
		Content:    content,
		Score:      score,
		Provenance: entity.ID,
	}
}

func (s *Store) unavailable(err error) error {
	return types.NewError(types.ErrAdapterUnavailable, "graph store query failed").
		WithSource(types.SourceGraph).
		WithCause(err).
		WithRetryable(true)
}
