package graphstore

import "context"

// SeedEntity pairs an entity with its aliases for bulk loading.
type SeedEntity struct {
	Entity  Entity
	Aliases []string
}

// SeedRelation is one edge of a bulk load.
type SeedRelation struct {
	From, To, Type string
	Weight         float64
}

// Seed bulk-loads a dataset into the store.
func (s *Store) Seed(ctx context.Context, entities []SeedEntity, relations []SeedRelation) error {
	for _, se := range entities {
		if err := s.AddEntity(ctx, se.Entity, se.Aliases...); err != nil {
			return err
		}
	}
	for _, sr := range relations {
		if err := s.AddRelation(ctx, sr.From, sr.To, sr.Type, sr.Weight); err != nil {
			return err
		}
	}
	return nil
}

// StarterEntities is a small medical FAQ dataset used by the CLI when no
// external dataset is configured.
var StarterEntities = []SeedEntity{
	{Entity: Entity{ID: "diabetes", Name: "diabetes", Type: "condition",
		Description: "a chronic condition in which the body cannot properly regulate blood sugar"},
		Aliases: []string{"diabetes mellitus", "sugar disease"}},
	{Entity: Entity{ID: "type_1_diabetes", Name: "type 1 diabetes", Type: "condition",
		Description: "an autoimmune form of diabetes in which the pancreas produces little or no insulin"}},
	{Entity: Entity{ID: "type_2_diabetes", Name: "type 2 diabetes", Type: "condition",
		Description: "a form of diabetes driven by insulin resistance, often linked to lifestyle factors"}},
	{Entity: Entity{ID: "increased_thirst", Name: "increased thirst", Type: "symptom",
		Description: "persistent excessive thirst"}, Aliases: []string{"polydipsia"}},
	{Entity: Entity{ID: "frequent_urination", Name: "frequent urination", Type: "symptom",
		Description: "needing to urinate more often than usual"}, Aliases: []string{"polyuria"}},
	{Entity: Entity{ID: "fatigue", Name: "fatigue", Type: "symptom",
		Description: "persistent tiredness not relieved by rest"}},
	{Entity: Entity{ID: "insulin", Name: "insulin", Type: "medication",
		Description: "a hormone used as replacement therapy to control blood sugar"}},
	{Entity: Entity{ID: "metformin", Name: "metformin", Type: "medication",
		Description: "a first-line oral medication that lowers glucose production"}},
	{Entity: Entity{ID: "hypertension", Name: "hypertension", Type: "condition",
		Description: "persistently elevated blood pressure"},
		Aliases: []string{"high blood pressure"}},
	{Entity: Entity{ID: "influenza", Name: "influenza", Type: "condition",
		Description: "a contagious respiratory infection caused by influenza viruses"},
		Aliases: []string{"flu", "the flu"}},
	{Entity: Entity{ID: "fever", Name: "fever", Type: "symptom",
		Description: "elevated body temperature"}},
	{Entity: Entity{ID: "cough", Name: "cough", Type: "symptom",
		Description: "a reflex clearing the airways"}},
}

// StarterRelations connects the starter entities.
var StarterRelations = []SeedRelation{
	{From: "diabetes", To: "increased_thirst", Type: "has_symptom", Weight: 1},
	{From: "diabetes", To: "frequent_urination", Type: "has_symptom", Weight: 1},
	{From: "diabetes", To: "fatigue", Type: "has_symptom", Weight: 0.9},
	{From: "type_1_diabetes", To: "insulin", Type: "treated_by", Weight: 1},
	{From: "type_2_diabetes", To: "metformin", Type: "treated_by", Weight: 1},
	{From: "type_2_diabetes", To: "insulin", Type: "treated_by", Weight: 0.7},
	{From: "diabetes", To: "hypertension", Type: "comorbid_with", Weight: 0.8},
	{From: "influenza", To: "fever", Type: "has_symptom", Weight: 1},
	{From: "influenza", To: "cough", Type: "has_symptom", Weight: 0.9},
}
