package domain

// UnknownDate — значение границ диапазона дат, если не разобрано ни одного сообщения.
const UnknownDate = "Unknown"

// ParsedMessage представляет одну строку экспорта, распознанную одним из шаблонов.
type ParsedMessage struct {
	DateText string `json:"date_text"`
	Author   string `json:"author"`
	Body     string `json:"body"`
}

// ClassifiedMessage — сообщение после классификации (системные сообщения сюда не попадают).
type ClassifiedMessage struct {
	ParsedMessage
	// Length — длина тела в единицах UTF-16.
	Length     int  `json:"length"`
	EmojiCount int  `json:"emoji_count"`
	IsMedia    bool `json:"is_media"`
	IsLink     bool `json:"is_link"`
}

// UserStats содержит счетчики одного автора.
type UserStats struct {
	MessageCount     int     `json:"message_count"`
	TotalLength      int     `json:"total_length"`
	EmojiCount       int     `json:"emoji_count"`
	MediaCount       int     `json:"media_count"`
	LinkCount        int     `json:"link_count"`
	AvgMessageLength float64 `json:"avg_message_length"`
}

// AddMessage учитывает одно сообщение и пересчитывает среднюю длину.
func (s *UserStats) AddMessage(length, emojis int, isMedia, isLink bool) {
	s.MessageCount++
	s.TotalLength += length
	s.EmojiCount += emojis
	if isMedia {
		s.MediaCount++
	}
	if isLink {
		s.LinkCount++
	}
	s.recalculateAverage()
}

func (s *UserStats) recalculateAverage() {
	if s.MessageCount > 0 {
		s.AvgMessageLength = float64(s.TotalLength) / float64(s.MessageCount)
		return
	}
	s.AvgMessageLength = 0
}

// AuthorStats связывает имя автора с его статистикой.
type AuthorStats struct {
	Author string    `json:"author"`
	Stats  UserStats `json:"stats"`
}

// DateRange — лексикографически минимальная и максимальная строки дат.
// Внимание: порядок строк "M/D/YY" не совпадает с хронологическим.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ChatAggregate — итог разбора одного файла. Порядок Users совпадает
// с порядком первого появления авторов в файле.
type ChatAggregate struct {
	Users         []AuthorStats `json:"users"`
	TotalMessages int           `json:"total_messages"`
	DateRange     DateRange     `json:"date_range"`

	index map[string]int
}

// NewChatAggregate создает пустой агрегат с диапазоном дат "Unknown".
func NewChatAggregate() *ChatAggregate {
	return &ChatAggregate{
		Users:     []AuthorStats{},
		DateRange: DateRange{Start: UnknownDate, End: UnknownDate},
		index:     make(map[string]int),
	}
}

// Upsert возвращает статистику автора, создавая нулевую запись при первом появлении.
func (a *ChatAggregate) Upsert(author string) *UserStats {
	if a.index == nil {
		a.reindex()
	}
	if i, ok := a.index[author]; ok {
		return &a.Users[i].Stats
	}
	a.Users = append(a.Users, AuthorStats{Author: author})
	a.index[author] = len(a.Users) - 1
	return &a.Users[len(a.Users)-1].Stats
}

// Lookup ищет статистику автора по точному имени.
func (a *ChatAggregate) Lookup(author string) (UserStats, bool) {
	if a.index == nil {
		a.reindex()
	}
	i, ok := a.index[author]
	if !ok {
		return UserStats{}, false
	}
	return a.Users[i].Stats, true
}

// Authors возвращает имена авторов в порядке первого появления.
func (a *ChatAggregate) Authors() []string {
	authors := make([]string, len(a.Users))
	for i, u := range a.Users {
		authors[i] = u.Author
	}
	return authors
}

// Len возвращает количество авторов.
func (a *ChatAggregate) Len() int {
	return len(a.Users)
}

// reindex восстанавливает индекс, например после json.Unmarshal.
func (a *ChatAggregate) reindex() {
	a.index = make(map[string]int, len(a.Users))
	for i, u := range a.Users {
		a.index[u.Author] = i
	}
}

// Prediction — бинарный результат классификации автора.
type Prediction string

const (
	PredictionActive   Prediction = "active"
	PredictionInactive Prediction = "inactive"
)

// MLFeature — признаки и предсказание для одного автора.
type MLFeature struct {
	Author           string     `json:"author"`
	MessageCount     int        `json:"message_count"`
	AvgMessageLength float64    `json:"avg_message_length"`
	EmojiCount       int        `json:"emoji_count"`
	MediaCount       int        `json:"media_count"`
	LinkCount        int        `json:"link_count"`
	ActivityScore    float64    `json:"activity_score"`
	Prediction       Prediction `json:"prediction"`
	Confidence       float64    `json:"confidence"`
}

// RankedUser — место автора в рейтинге по количеству сообщений.
type RankedUser struct {
	Rank            int       `json:"rank"`
	Author          string    `json:"author"`
	Badge           string    `json:"badge"`
	EngagementScore float64   `json:"engagement_score"`
	Stats           UserStats `json:"stats"`
}

// ChatSummary содержит общие показатели чата.
type ChatSummary struct {
	TotalAuthors       int       `json:"total_authors"`
	TotalMessages      int       `json:"total_messages"`
	TotalEmojis        int       `json:"total_emojis"`
	TotalMedia         int       `json:"total_media"`
	TotalLinks         int       `json:"total_links"`
	AvgMessagesPerUser int       `json:"avg_messages_per_user"`
	MostActiveUser     string    `json:"most_active_user"`
	DateRange          DateRange `json:"date_range"`
}

// AnalysisReport — полный результат анализа, передаваемый потребителям.
type AnalysisReport struct {
	// ContentHash — SHA-256 исходного текста, ключ кэша.
	ContentHash string         `json:"content_hash"`
	Aggregate   *ChatAggregate `json:"aggregate"`
	Predictions []MLFeature    `json:"predictions"`
	Insights    []string       `json:"insights"`
	Summary     ChatSummary    `json:"summary"`
	Ranking     []RankedUser   `json:"ranking"`
}

// ActiveCount возвращает количество авторов с предсказанием "active".
func (r *AnalysisReport) ActiveCount() int {
	n := 0
	for _, p := range r.Predictions {
		if p.Prediction == PredictionActive {
			n++
		}
	}
	return n
}
