package scoring

import (
	"context"
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mbonsma/cyclelinx/internal/model"
)

// Segments fetches every arterial segment with its project memberships.
func (c *Client) Segments(ctx context.Context) ([]model.Segment, error) {
	fc, err := callRetry[geojson.FeatureCollection](ctx, c, "arterials", "/arterials")
	if err != nil {
		return nil, eris.Wrap(err, "scoring: segments")
	}
	return SegmentsFromFeatures(&fc)
}

// SegmentsFromFeatures converts arterial features into segments. Features
// without a numeric id are rejected.
func SegmentsFromFeatures(fc *geojson.FeatureCollection) ([]model.Segment, error) {
	segs := make([]model.Segment, 0, len(fc.Features))
	for i, f := range fc.Features {
		seg, err := segmentFromFeature(f)
		if err != nil {
			return nil, eris.Wrapf(err, "scoring: feature %d", i)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func segmentFromFeature(f *geojson.Feature) (model.Segment, error) {
	props := f.Properties
	id, ok := number(props["id"])
	if !ok {
		return model.Segment{}, eris.New("missing segment id")
	}
	seg := model.Segment{
		ID:       model.SegmentID(id),
		Geometry: f.Geometry,
	}
	if v, ok := number(props["GEO_ID"]); ok {
		seg.GeoID = int64(v)
	}
	if v, ok := number(props["total_length"]); ok {
		seg.TotalLength = v
	}
	if v, ok := number(props["default_project_id"]); ok {
		pid := model.ProjectID(v)
		seg.DefaultProjectID = &pid
	}
	if raw, ok := props["budget_project_ids"].([]any); ok {
		seg.BudgetProjectIDs = make([]model.ProjectID, 0, len(raw))
		for _, r := range raw {
			if v, ok := number(r); ok {
				seg.BudgetProjectIDs = append(seg.BudgetProjectIDs, model.ProjectID(v))
			}
		}
	}
	return seg, nil
}

// number reads a JSON number property. Whole-valued floats are the norm;
// json.Number appears when the decoder was configured with UseNumber.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
