package domain

import "sort"

// maxTopCategories bounds the ranked category list.
const maxTopCategories = 3

// PredictionResult is a ranked, probabilistic estimate of likely crime
// categories for a location and month.
type PredictionResult struct {
	PredictedCategory string             `json:"predicted_crime_type"`
	TopCategories     []string           `json:"top_3_predicted_crime_types"`
	Probabilities     map[string]float64 `json:"probabilities"`
	Coordinates       Coordinate         `json:"coordinates"`
	LocationFeatures  LocationFeatures   `json:"location_features"`
	ModelVersion      string             `json:"model_version"`
}

// LocationFeatures are the inputs the model derived for the location.
type LocationFeatures struct {
	LocationType  string `json:"location_type"`
	OutcomeStatus string `json:"outcome_status"`
	StreetName    string `json:"street_name"`
}

// Normalize enforces the ranking guarantees: TopCategories holds at most
// three names, is derived from Probabilities when the model omitted it, and
// PredictedCategory defaults to the highest-ranked name.
func (p PredictionResult) Normalize() PredictionResult {
	if len(p.TopCategories) == 0 && len(p.Probabilities) > 0 {
		p.TopCategories = rankByProbability(p.Probabilities)
	}
	if len(p.TopCategories) > maxTopCategories {
		p.TopCategories = p.TopCategories[:maxTopCategories]
	}
	if p.PredictedCategory == "" && len(p.TopCategories) > 0 {
		p.PredictedCategory = p.TopCategories[0]
	}
	return p
}

// rankByProbability orders categories by descending probability, breaking
// ties by name so the result is stable.
func rankByProbability(probs map[string]float64) []string {
	names := make([]string, 0, len(probs))
	for name := range probs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := probs[names[i]], probs[names[j]]
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})
	return names
}
