package diagnostics

// Diagnostic model identifiers.
const (
	ModelBoneFracture = "bone_fracture"
	ModelECG          = "ecg"
	ModelBrainMRI     = "brain_mri"
	ModelChestXray    = "chest_xray"
)

// Model describes one diagnostic model: its inference endpoint, how uploads and
// explanation overlays are staged (stored in the uploads area vs embedded as
// data URIs), how its response is normalized, and how its report is rendered.
type Model struct {
	ID             string
	Slug           string
	Endpoint       string
	UploadContent  string
	FailureMessage string
	InlineUpload   bool
	InlineArtifact bool
	Normalize      func(raw map[string]any) Result
	Render         func(res Result) string
}

// Registry holds the fixed diagnostic model table.
type Registry struct {
	models []*Model
	byID   map[string]*Model
}

// NewRegistry builds the model table with endpoints from the config.
func NewRegistry(cfg *Config) *Registry {
	models := []*Model{
		{
			ID:             ModelBoneFracture,
			Slug:           "bone",
			Endpoint:       cfg.BoneFracture,
			UploadContent:  "Uploaded Bone Fracture X-ray",
			FailureMessage: "Error processing bone fracture X-ray",
			Normalize:      normalizeBoneFracture,
			Render:         renderBoneFracture,
		},
		{
			ID:             ModelECG,
			Slug:           "ecg",
			Endpoint:       cfg.ECG,
			UploadContent:  "Uploaded ECG image",
			FailureMessage: "Error processing the ECG image",
			InlineUpload:   true,
			InlineArtifact: true,
			Normalize:      normalizeECG,
			Render:         renderECG,
		},
		{
			ID:             ModelBrainMRI,
			Slug:           "brain",
			Endpoint:       cfg.BrainMRI,
			UploadContent:  "Uploaded Brain MRI scan",
			FailureMessage: "Error processing the brain MRI scan",
			Normalize:      normalizeBrainMRI,
			Render:         renderBrainMRI,
		},
		{
			ID:             ModelChestXray,
			Slug:           "chest",
			Endpoint:       cfg.ChestXray,
			UploadContent:  "Uploaded Chest X-ray",
			FailureMessage: "Error processing the chest X-ray",
			InlineUpload:   true,
			InlineArtifact: true,
			Normalize:      normalizeChestXray,
			Render:         renderChestXray,
		},
	}

	byID := make(map[string]*Model, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}

	return &Registry{
		models: models,
		byID:   byID,
	}
}

// Models returns all registered diagnostic models in registration order.
func (r *Registry) Models() []*Model {
	return r.models
}

// Find returns the model for the given identifier.
func (r *Registry) Find(id string) (*Model, bool) {
	m, ok := r.byID[id]
	return m, ok
}
