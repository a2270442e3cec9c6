package scores

// dark2 is the ColorBrewer Dark2 scheme.
var dark2 = []string{
	"#1b9e77", "#d95f02", "#7570b3", "#e7298a",
	"#66a61e", "#e6ab02", "#a6761d", "#666666",
}

// Palette assigns each metric a fill colour in catalog order, cycling
// through Dark2 when there are more metrics than colours.
type Palette struct {
	colors map[string]string
	next   int
}

// NewPalette builds a palette for the given metric names.
func NewPalette(metrics []string) *Palette {
	p := &Palette{colors: make(map[string]string, len(metrics))}
	for _, m := range metrics {
		p.Color(m)
	}
	return p
}

// Color returns the colour for metric. Unknown metrics are assigned the
// next colour on first use, as an ordinal scale does.
func (p *Palette) Color(metric string) string {
	if c, ok := p.colors[metric]; ok {
		return c
	}
	c := dark2[p.next%len(dark2)]
	p.next++
	p.colors[metric] = c
	return c
}
