package diagnostics

import "encoding/base64"

// Normalizers are permissive on purpose: the inference services are bespoke
// and their payload shapes have drifted before. Missing or mistyped fields
// collapse to defaults rather than failing the request.

func normalizeBoneFracture(raw map[string]any) Result {
	res := Result{
		Label: stringField(raw, "label", ""),
	}
	if v, ok := floatField(raw, "probability"); ok {
		res.Confidence = &v
	}
	res.Artifact, res.ArtifactB64 = artifactField(raw, "gradcam_image")
	return res
}

func normalizeECG(raw map[string]any) Result {
	res := Result{
		Label:       stringField(raw, "predicted_class", "Unknown"),
		Explanation: stringField(raw, "explanation", "No explanation provided"),
	}
	res.Artifact, res.ArtifactB64 = artifactField(raw, "gradcam_image")
	return res
}

func normalizeBrainMRI(raw map[string]any) Result {
	res := Result{
		Label: stringField(raw, "label", "Unknown"),
	}
	if v, ok := floatField(raw, "probability"); ok {
		res.Confidence = &v
	}
	res.Artifact, res.ArtifactB64 = artifactField(raw, "gradcam_image")
	return res
}

func normalizeChestXray(raw map[string]any) Result {
	res := Result{
		Label:       stringField(raw, "predicted_class", "Unknown"),
		Explanation: stringField(raw, "explanation", "No explanation provided"),
	}
	res.Artifact, res.ArtifactB64 = artifactField(raw, "gradcam_image")
	return res
}

func stringField(raw map[string]any, key, fallback string) string {
	if v, ok := raw[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatField(raw map[string]any, key string) (float64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// artifactField decodes a base64 overlay payload. Undecodable payloads are
// treated as absent.
func artifactField(raw map[string]any, key string) ([]byte, string) {
	encoded, ok := raw[key].(string)
	if !ok || encoded == "" {
		return nil, ""
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ""
	}

	return decoded, encoded
}
