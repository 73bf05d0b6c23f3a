package layerdocx

import (
	"bytes"
	"strings"
	"text/template"
	"time"
)

// manifestSampleEvery selects which layers are listed in the manifest.
const manifestSampleEvery = 5

var manifestTemplate = template.Must(template.New("manifest").Funcs(template.FuncMap{
	"rule": func() string { return strings.Repeat("=", 60) },
	"ts": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format(time.RFC3339)
	},
	"pct":    func(ratio float64) float64 { return ratio * 100 },
	"sample": func(i int) bool { return i%manifestSampleEvery == 0 },
}).Parse(`LAYERED PACKAGE MANIFEST
{{rule}}
Document: {{.Config.Name}}
Run ID: {{.RunID}}
Generated: {{ts .StartedAt}}
Completed: {{ts .CompletedAt}}
Version: {{.Config.Version}}

{{rule}}
PARAMETERS
{{rule}}
Decay Coefficient: alpha = {{.Config.Alpha}}
Layers: L = {{.Config.LayerCount}}
Base Size: {{.Config.BaseSize}} bytes
Energy Formula: E(d) = E0 exp(-{{.Config.Alpha}}*d)
Cascade Factor: {{printf "%.6f" .CascadeFactor}}
Total Energy: {{printf "%.6f" .TotalEnergy}}
Efficiency: {{printf "%.1f" (pct .Efficiency)}}%
Payload Bytes: {{.TotalPayloadBytes}}

{{rule}}
LAYER SAMPLES
{{rule}}
{{range .Layers}}{{if sample .Index}}Layer {{.Index}}: Energy={{printf "%.4f" .Energy}}, Size={{.Size}}, Offset={{printf "%.2f" .TemporalOffset}}, Prime={{.Prime}}
{{end}}{{end}}{{if .Skipped}}
{{rule}}
SKIPPED LAYERS
{{rule}}
{{range .Skipped}}Layer {{.Index}}: {{.Err}}
{{end}}{{end}}`))

// RenderManifest renders the plain-text summary of a finished run.
func RenderManifest(run *RunMetadata) ([]byte, error) {
	var b bytes.Buffer
	if err := manifestTemplate.Execute(&b, run); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
