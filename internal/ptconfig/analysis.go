package ptconfig

import (
	"github.com/BurntSushi/toml"

	"github.com/proteus-tel/proteus/internal/ptalign"
	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptdevice"
	"github.com/proteus-tel/proteus/internal/ptnoise"
	"github.com/proteus-tel/proteus/internal/pttrack"
)

// alignOptionsDoc mirrors "align" option table; pointer fields
// are nil when absent from the document, so buildAlignOptions can apply
// the documented default.
type alignOptionsDoc struct {
	NumSteps *int `toml:"num_steps"`
	Method *string `toml:"method"`
	SearchSigmaMax *float64 `toml:"search_sigma_max"`
	ReducedChi2Max *float64 `toml:"reduced_chi2_max"`
	Damping *float64 `toml:"damping"`
	SensorIDs []int `toml:"sensor_ids"`
	AlignIDs []int `toml:"align_ids"`
}

// AlignOptions is the resolved "align" tool configuration
type AlignOptions struct {
	NumSteps int
	Method string // "correlations" or "residuals"
	SearchSigmaMax float64
	ReducedChi2Max float64
	Damping float64
	SensorIDs []int
	AlignIDs []int
}

func buildAlignOptions(d alignOptionsDoc) (AlignOptions, error) {
	o := AlignOptions{
		NumSteps: 1, SearchSigmaMax: 5.0, ReducedChi2Max: -1, Damping: 0.9,
		SensorIDs: d.SensorIDs, AlignIDs: d.AlignIDs,
	}
	if d.NumSteps != nil {
		o.NumSteps = *d.NumSteps
	}
	if d.SearchSigmaMax != nil {
		o.SearchSigmaMax = *d.SearchSigmaMax
	}
	if d.ReducedChi2Max != nil {
		o.ReducedChi2Max = *d.ReducedChi2Max
	}
	if d.Damping != nil {
		o.Damping = *d.Damping
	}
	if d.Method != nil {
		o.Method = *d.Method
	}
	if o.Method != "correlations" && o.Method != "residuals" {
		return o, ptcore.Configf("config", `align.method must be "correlations" or "residuals", got %q`, o.Method)
	}
	return o, nil
}

// noiseScanOptionsDoc mirrors "noisescan" option table.
type noiseScanOptionsDoc struct {
	DensityBandwidth *float64 `toml:"density_bandwidth"`
	SigmaAboveAvgMax *float64 `toml:"sigma_above_avg_max"`
	RateMax *float64 `toml:"rate_max"`
	ColMin *int `toml:"col_min"`
	ColMax *int `toml:"col_max"` // inclusive
	RowMin *int `toml:"row_min"`
	RowMax *int `toml:"row_max"` // inclusive
}

// buildNoiseScanParams resolves a noiseScanOptionsDoc into ptnoise.Params,
// defaulting the ROI to the sensor's full extent.
func buildNoiseScanParams(d noiseScanOptionsDoc, cols, rows int) ptnoise.Params {
	p := ptnoise.Params{
		BandwidthMetric: 2.0,
		SigmaMax: 5.0,
		RateMax: 1.0,
		Roi: ptnoise.ROI{ColMin: 0, ColMax: cols, RowMin: 0, RowMax: rows},
	}
	if d.DensityBandwidth != nil {
		p.BandwidthMetric = *d.DensityBandwidth
	}
	if d.SigmaAboveAvgMax != nil {
		p.SigmaMax = *d.SigmaAboveAvgMax
	}
	if d.RateMax != nil {
		p.RateMax = *d.RateMax
	}
	if d.ColMin != nil {
		p.Roi.ColMin = *d.ColMin
	}
	if d.ColMax != nil {
		p.Roi.ColMax = *d.ColMax + 1
	}
	if d.RowMin != nil {
		p.Roi.RowMin = *d.RowMin
	}
	if d.RowMax != nil {
		p.Roi.RowMax = *d.RowMax + 1
	}
	return p
}

// reconOptionsDoc mirrors "recon" option table.
type reconOptionsDoc struct {
	SearchSpatialSigmaMax *float64 `toml:"search_spatial_sigma_max"`
	SearchTemporalSigmaMax *float64 `toml:"search_temporal_sigma_max"`
	NumPointsMin *int `toml:"num_points_min"`
	ReducedChi2Max *float64 `toml:"reduced_chi2_max"`
	TrackFitter *string `toml:"track_fitter"`
	SensorIDs []int `toml:"sensor_ids"`
}

func buildReconParams(d reconOptionsDoc, sensorIDs []int) (pttrack.Params, error) {
	p := pttrack.Params{
		SensorIDs: sensorIDs,
		NPointsMin: 3,
		SearchSpatialSigmaMax: 5.0,
		SearchTemporalSigmaMax: -1,
		ReducedChi2Max: -1,
	}
	if len(d.SensorIDs) > 0 {
		p.SensorIDs = d.SensorIDs
	}
	if d.NumPointsMin != nil {
		p.NPointsMin = *d.NumPointsMin
	}
	if d.SearchSpatialSigmaMax != nil {
		p.SearchSpatialSigmaMax = *d.SearchSpatialSigmaMax
	}
	if d.SearchTemporalSigmaMax != nil {
		p.SearchTemporalSigmaMax = *d.SearchTemporalSigmaMax
	}
	if d.ReducedChi2Max != nil {
		p.ReducedChi2Max = *d.ReducedChi2Max
	}
	fitter := "straight3d"
	if d.TrackFitter != nil {
		fitter = *d.TrackFitter
	}
	if fitter != "straight3d" {
		return p, ptcore.Configf("config", `recon.track_fitter must be "straight3d", got %q`, fitter)
	}
	return p, nil
}

// AnalysisDoc is the top-level analysis document: named
// sub-sections per tool, selected at the CLI by `-u SECTION`.
type AnalysisDoc struct {
	Align map[string]alignOptionsDoc `toml:"align"`
	NoiseScan map[string]noiseScanOptionsDoc `toml:"noisescan"`
	Recon map[string]reconOptionsDoc `toml:"recon"`
}

// decodeAnalysis reads the raw analysis document from path.
func decodeAnalysis(path string) (AnalysisDoc, error) {
	var doc AnalysisDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return doc, ptcore.IOf("config", "decode analysis config %s: %v", path, err)
	}
	return doc, nil
}

// LoadAlignOptions reads the named [align.<section>] table. An empty path
// yields an error, since the align method has no default.
func LoadAlignOptions(path, section string) (AlignOptions, error) {
	if path == "" {
		return buildAlignOptions(alignOptionsDoc{})
	}
	doc, err := decodeAnalysis(path)
	if err != nil {
		return AlignOptions{}, err
	}
	return buildAlignOptions(doc.Align[section])
}

// LoadNoiseScanParams reads the named [noisescan.<section>] table.
func LoadNoiseScanParams(path, section string, cols, rows int) (ptnoise.Params, error) {
	if path == "" {
		return buildNoiseScanParams(noiseScanOptionsDoc{}, cols, rows), nil
	}
	doc, err := decodeAnalysis(path)
	if err != nil {
		return ptnoise.Params{}, err
	}
	return buildNoiseScanParams(doc.NoiseScan[section], cols, rows), nil
}

// LoadReconParams reads the named [recon.<section>] table.
func LoadReconParams(path, section string, sensorIDs []int) (pttrack.Params, error) {
	if path == "" {
		return buildReconParams(reconOptionsDoc{}, sensorIDs)
	}
	doc, err := decodeAnalysis(path)
	if err != nil {
		return pttrack.Params{}, err
	}
	return buildReconParams(doc.Recon[section], sensorIDs)
}

// AlignerFactoryFor wires an AlignOptions.Method onto the right
// ptalign.AlignerFactory "method: 'correlations' or
// 'residuals'".
func AlignerFactoryFor(o AlignOptions) ptalign.AlignerFactory {
	switch o.Method {
	case "correlations":
		alignable := o.AlignIDs
		if len(o.SensorIDs) == 0 {
			return func(*ptdevice.Device) (ptalign.Aligner, error) {
				return nil, ptcore.Configf("config", "align.sensor_ids must name a reference sensor for the correlations method")
			}
		}
		reference := o.SensorIDs[0]
		return func(device *ptdevice.Device) (ptalign.Aligner, error) {
			return ptalign.NewCorrelationAligner(device, reference, alignable)
		}
	default:
		damping := o.Damping
		alignable := o.AlignIDs
		return func(device *ptdevice.Device) (ptalign.Aligner, error) {
			return ptalign.NewResidualsAligner(device, alignable, damping)
		}
	}
}
