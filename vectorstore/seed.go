package vectorstore

// StarterDocuments is the bootstrap medical FAQ corpus indexed at startup.
// Chunk IDs are stable so citations stay meaningful across restarts.
func StarterDocuments() []Document {
	return []Document{
		{
			ID:      "chunk_diabetes_overview",
			Content: "Diabetes is a chronic condition in which the body cannot properly regulate blood sugar. The main types are type 1 diabetes, type 2 diabetes, and gestational diabetes.",
		},
		{
			ID:      "chunk_diabetes_symptoms",
			Content: "Common symptoms of diabetes include increased thirst, frequent urination, fatigue, blurred vision, and slow healing wounds.",
		},
		{
			ID:      "chunk_diabetes_types",
			Content: "Type 1 diabetes is an autoimmune condition where the pancreas produces little or no insulin. Type 2 diabetes develops when the body becomes resistant to insulin.",
		},
		{
			ID:      "chunk_diabetes_treatment",
			Content: "Treatment for diabetes includes insulin therapy, metformin, regular blood sugar monitoring, a balanced diet, and physical activity.",
		},
		{
			ID:      "chunk_influenza_overview",
			Content: "Influenza, commonly called the flu, is a contagious respiratory illness caused by influenza viruses. Symptoms include fever, cough, sore throat, and muscle aches.",
		},
		{
			ID:      "chunk_hypertension_overview",
			Content: "Hypertension, or high blood pressure, often has no symptoms but increases the risk of heart disease and stroke. It is managed with lifestyle changes and medication.",
		},
	}
}
