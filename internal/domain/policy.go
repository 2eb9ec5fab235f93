package domain

// FeatureWeights — веса линейной оценки активности.
type FeatureWeights struct {
	Message float64 `json:"message" yaml:"message"`
	Emoji   float64 `json:"emoji" yaml:"emoji"`
	Media   float64 `json:"media" yaml:"media"`
	Link    float64 `json:"link" yaml:"link"`
}

// ScoringPolicy описывает эвристику классификации авторов.
type ScoringPolicy struct {
	Weights FeatureWeights `json:"weights" yaml:"weights"`
	// ActiveQuantile — доля авторов сверху рейтинга, определяющая порог "active".
	ActiveQuantile float64 `json:"active_quantile" yaml:"active_quantile"`
}

// DefaultScoringPolicy возвращает стандартные веса 0.4/0.3/0.2/0.1 и квантиль 0.3.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Weights: FeatureWeights{
			Message: 0.4,
			Emoji:   0.3,
			Media:   0.2,
			Link:    0.1,
		},
		ActiveQuantile: 0.3,
	}
}

// Score вычисляет оценку активности для статистики автора.
func (p ScoringPolicy) Score(s UserStats) float64 {
	// Явные float64(...) запрещают слияние в FMA: каждое произведение округляется отдельно.
	return float64(float64(s.MessageCount)*p.Weights.Message) +
		float64(float64(s.EmojiCount)*p.Weights.Emoji) +
		float64(float64(s.MediaCount)*p.Weights.Media) +
		float64(float64(s.LinkCount)*p.Weights.Link)
}
