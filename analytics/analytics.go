package analytics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studynotes/common"
	"studynotes/logger"
)

// GenerationEvent is one call to the LLM adapter made on behalf of a user.
type GenerationEvent struct {
	ID         uint      `gorm:"primary_key;autoIncrement"`
	UserID     int       `gorm:"not null;index"`
	Provider   string    `gorm:"not null;index"`
	Model      string
	Kind       string    `gorm:"not null"` // prompt type, custom, regenerate, word
	Success    bool      `gorm:"not null"`
	DurationMs int64
	CreatedAt  time.Time `gorm:"index"`
}

// UsageModule stores generation events in the analytics database. A nil
// module is valid and records nothing.
type UsageModule struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsageModule(db *gorm.DB, log *logger.Logger) *UsageModule {
	if db == nil {
		log.Info("analytics db is nil, usage analytics disabled")
		return nil
	}

	if err := db.AutoMigrate(&GenerationEvent{}); err != nil {
		log.Error("error migrating generation_events table", "error", err)
		return nil
	}

	log.Info("usage analytics initialized")
	return &UsageModule{db: db, log: log}
}

func (a *UsageModule) Enabled() bool {
	return a != nil && a.db != nil
}

func (a *UsageModule) TrackGeneration(userID int, provider, model, kind string, success bool, duration time.Duration) {
	if !a.Enabled() {
		return
	}

	event := GenerationEvent{
		UserID:     userID,
		Provider:   provider,
		Model:      model,
		Kind:       kind,
		Success:    success,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.db.Create(&event).Error; err != nil {
		a.log.Error("error saving generation event", "user_id", userID, "error", err)
	}
}

type DayCount struct {
	Date  string
	Count int64
}

type ProviderCount struct {
	Provider string
	Count    int64
	Failures int64
}

// GetGenerationsByDay returns one entry per day for the last days days,
// oldest first, with zero for days without events.
func (a *UsageModule) GetGenerationsByDay(userID int, days int) []DayCount {
	if !a.Enabled() || days <= 0 {
		return []DayCount{}
	}

	now := time.Now().UTC()
	startDate := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	var results []struct {
		Date  string
		Count int64
	}

	a.db.Model(&GenerationEvent{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("user_id = ? AND created_at >= ?", userID, startDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results)

	counts := make([]DayCount, days)
	for i := 0; i < days; i++ {
		counts[i] = DayCount{Date: now.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")}
	}

	for _, r := range results {
		for i := range counts {
			if counts[i].Date == r.Date {
				counts[i].Count = r.Count
				break
			}
		}
	}

	return counts
}

// GetProviderCounts totals a user's generations per provider, most used first.
func (a *UsageModule) GetProviderCounts(userID int) []ProviderCount {
	if !a.Enabled() {
		return []ProviderCount{}
	}

	var results []ProviderCount
	a.db.Model(&GenerationEvent{}).
		Select("provider, COUNT(*) as count, SUM(CASE WHEN success THEN 0 ELSE 1 END) as failures").
		Where("user_id = ?", userID).
		Group("provider").
		Order("count DESC").
		Scan(&results)

	return results
}

func (a *UsageModule) Total(userID int) int64 {
	if !a.Enabled() {
		return 0
	}
	var count int64
	a.db.Model(&GenerationEvent{}).Where("user_id = ?", userID).Count(&count)
	return count
}

func (a *UsageModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/usage", common.RequireAuth, a.usage)
}

func (a *UsageModule) usage(c *gin.Context) {
	userID := common.CurrentUserID(c)

	c.HTML(http.StatusOK, "analytics_usage.html", gin.H{
		"title":     "Usage",
		"enabled":   a.Enabled(),
		"days":      a.GetGenerationsByDay(userID, 14),
		"providers": a.GetProviderCounts(userID),
		"total":     a.Total(userID),
		"flashes":   common.Flashes(c),
	})
}
