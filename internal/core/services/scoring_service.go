package services

import (
	"context"
	"math"
	"sort"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

const (
	confidenceBoost = 0.2
	minConfidence   = 0.5
	maxConfidence   = 0.95
)

// ScoringServiceImpl реализует интерфейс Scorer.
type ScoringServiceImpl struct {
	policy   domain.ScoringPolicy
	observer ports.PipelineObserver
}

// NewScoringService создает новый экземпляр ScoringServiceImpl с заданной политикой.
func NewScoringService(policy domain.ScoringPolicy, observer ports.PipelineObserver) ports.Scorer {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &ScoringServiceImpl{policy: policy, observer: observer}
}

// Score оценивает каждого автора, вычисляет порог по квантилю и возвращает
// признаки, отсортированные по убыванию оценки. При равных оценках сохраняется
// порядок первого появления авторов.
func (s *ScoringServiceImpl) Score(ctx context.Context, aggregate *domain.ChatAggregate) []domain.MLFeature {
	features := make([]domain.MLFeature, 0, aggregate.Len())
	scores := make([]float64, 0, aggregate.Len())
	for _, u := range aggregate.Users {
		score := s.policy.Score(u.Stats)
		scores = append(scores, score)
		features = append(features, domain.MLFeature{
			Author:           u.Author,
			MessageCount:     u.Stats.MessageCount,
			AvgMessageLength: u.Stats.AvgMessageLength,
			EmojiCount:       u.Stats.EmojiCount,
			MediaCount:       u.Stats.MediaCount,
			LinkCount:        u.Stats.LinkCount,
			ActivityScore:    score,
		})
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	threshold := Threshold(scores, s.policy.ActiveQuantile)
	maxScore := 1.0
	if len(scores) > 0 && scores[0] != 0 {
		maxScore = scores[0]
	}

	active := 0
	for i := range features {
		f := &features[i]
		if f.ActivityScore >= threshold {
			f.Prediction = domain.PredictionActive
			active++
		} else {
			f.Prediction = domain.PredictionInactive
		}
		f.Confidence = clamp(f.ActivityScore/maxScore+confidenceBoost, minConfidence, maxConfidence)
	}

	sort.SliceStable(features, func(i, j int) bool {
		return features[i].ActivityScore > features[j].ActivityScore
	})

	s.observer.OnCheckpoint(ctx, ports.CheckpointScored, map[string]any{
		"authors":   len(features),
		"active":    active,
		"threshold": threshold,
	})
	return features
}

// Threshold возвращает значение из отсортированного по убыванию списка оценок
// по индексу floor(quantile*N). Пустой список или индекс за пределами дают 0.
func Threshold(sortedDesc []float64, quantile float64) float64 {
	idx := int(math.Floor(float64(len(sortedDesc)) * quantile))
	if idx < 0 || idx >= len(sortedDesc) {
		return 0
	}
	return sortedDesc[idx]
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
