package diagnostics

import (
	"fmt"
	"strings"
)

// Renderers are pure: the same Result always yields the same report text.

func renderBoneFracture(res Result) string {
	var b strings.Builder
	b.WriteString("# 🦴 Bone Fracture X-ray Report\n\n")

	if res.Label == "Fracture" {
		b.WriteString("### ⚠️ **Fracture Detected**  \n")
	} else {
		b.WriteString("### ✅ **No Fracture Detected**  \n")
	}
	b.WriteString(fmt.Sprintf("Probability: **%s**", formatPercent(res.Confidence)))

	return b.String()
}

func renderECG(res Result) string {
	return fmt.Sprintf(
		"# ❤️ ECG Analysis Report\n\n**Predicted Class:** %s\n\n**Explanation:**\n%s",
		res.Label,
		res.Explanation,
	)
}

func renderBrainMRI(res Result) string {
	var b strings.Builder
	b.WriteString("# 🧠 Brain MRI Analysis Report\n\n")

	if res.Label == "No Tumor" {
		b.WriteString("### ✅ **No Tumor Detected**  \n")
	} else {
		b.WriteString(fmt.Sprintf("### ⚠️ **%s Detected**  \n", res.Label))
	}
	b.WriteString(fmt.Sprintf("Probability: **%s**", formatPercent(res.Confidence)))

	return b.String()
}

func renderChestXray(res Result) string {
	return fmt.Sprintf(
		"# 🫁 Chest X-ray Analysis Report\n\n**Predicted Class:** %s\n\n**Explanation:**\n%s",
		res.Label,
		res.Explanation,
	)
}

// formatPercent renders a [0,1] confidence as a percentage with two decimals.
func formatPercent(confidence *float64) string {
	if confidence == nil {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", *confidence*100)
}
