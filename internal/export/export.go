// Package export writes saved plans as GeoJSON for download.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/mbonsma/cyclelinx/internal/membership"
	"github.com/mbonsma/cyclelinx/internal/model"
)

// Exporter renders the segments touched by a set of projects.
type Exporter struct {
	index    *membership.Index
	segments map[model.SegmentID]model.Segment
}

// New indexes segments for export.
func New(segments []model.Segment) *Exporter {
	byID := make(map[model.SegmentID]model.Segment, len(segments))
	for _, s := range segments {
		byID[s.ID] = s
	}
	return &Exporter{index: membership.NewIndex(segments), segments: byID}
}

// ProjectIDsFor returns the improvements of a saved plan as a set.
func ProjectIDsFor(item model.HistoryItem) model.ProjectSet {
	return model.NewProjectSet(item.Improvements...)
}

// Collection returns every segment sharing a project with ids, in load
// order. The only property carried is GEO_ID.
func (e *Exporter) Collection(ids model.ProjectSet) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, id := range e.index.Overlapping(ids) {
		seg := e.segments[id]
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   seg.Geometry,
			Properties: map[string]interface{}{"GEO_ID": seg.GeoID},
		})
	}
	return fc
}

// Write encodes the collection for item to w.
func (e *Exporter) Write(w io.Writer, item model.HistoryItem) (int, error) {
	fc := e.Collection(ProjectIDsFor(item))
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return 0, eris.Wrapf(err, "export: encode %q", item.Name)
	}
	return len(fc.Features), nil
}

// WriteFile writes item to dir/FileName(item.Name) and returns the path.
func (e *Exporter) WriteFile(dir string, item model.HistoryItem) (string, error) {
	path := filepath.Join(dir, FileName(item.Name))
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	n, err := e.Write(f, item)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "export: close %s", path)
	}
	zap.L().Info("export: wrote plan",
		zap.String("name", item.Name),
		zap.String("path", path),
		zap.Int("features", n),
	)
	return path, nil
}

var unsafeFileChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")

// FileName is the download name for a saved plan.
func FileName(name string) string {
	name = strings.TrimSpace(unsafeFileChars.Replace(name))
	if name == "" {
		name = "plan"
	}
	return name + ".geojson"
}
