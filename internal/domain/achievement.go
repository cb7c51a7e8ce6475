package domain

import "time"

// AchievementCategory groups achievement types for display.
type AchievementCategory string

const (
	CategoryStreak    AchievementCategory = "streak"
	CategoryCount     AchievementCategory = "count"
	CategoryDuration  AchievementCategory = "duration"
	CategoryFocus     AchievementCategory = "focus"
	CategoryBreathing AchievementCategory = "breathing"
	CategorySpecial   AchievementCategory = "special"
)

// Metric names the counter an achievement is measured against.
type Metric int

const (
	MetricTotalSessions Metric = iota
	MetricTotalMinutes
	MetricCurrentStreak
	MetricFocusSessions
	MetricBreathingSessions
	MetricEarlyBirdSessions
	MetricNightOwlSessions
	MetricWeekendStreaks
	MetricTreeLevel
)

// AchievementType is the closed set of unlockable achievements.
type AchievementType string

const (
	FirstSession   AchievementType = "FIRST_SESSION"
	Sessions10     AchievementType = "SESSIONS_10"
	Sessions50     AchievementType = "SESSIONS_50"
	Sessions100    AchievementType = "SESSIONS_100"
	Streak3Days    AchievementType = "STREAK_3_DAYS"
	Streak7Days    AchievementType = "STREAK_7_DAYS"
	Streak14Days   AchievementType = "STREAK_14_DAYS"
	Streak30Days   AchievementType = "STREAK_30_DAYS"
	Streak100Days  AchievementType = "STREAK_100_DAYS"
	Minutes60      AchievementType = "MINUTES_60"
	Minutes300     AchievementType = "MINUTES_300"
	Minutes1000    AchievementType = "MINUTES_1000"
	FirstFocus     AchievementType = "FIRST_FOCUS"
	Focus10        AchievementType = "FOCUS_10"
	Focus50        AchievementType = "FOCUS_50"
	FirstBreathing AchievementType = "FIRST_BREATHING"
	Breathing25    AchievementType = "BREATHING_25"
	EarlyBird      AchievementType = "EARLY_BIRD"
	NightOwl       AchievementType = "NIGHT_OWL"
	WeekendWarrior AchievementType = "WEEKEND_WARRIOR"
	TreeFullyGrown AchievementType = "TREE_FULLY_GROWN"
)

type achievementDef struct {
	category    AchievementCategory
	metric      Metric
	target      int
	title       string
	description string
}

// AchievementTypes lists every type in display order.
var AchievementTypes = []AchievementType{
	FirstSession, Sessions10, Sessions50, Sessions100,
	Streak3Days, Streak7Days, Streak14Days, Streak30Days, Streak100Days,
	Minutes60, Minutes300, Minutes1000,
	FirstFocus, Focus10, Focus50,
	FirstBreathing, Breathing25,
	EarlyBird, NightOwl, WeekendWarrior, TreeFullyGrown,
}

var achievementDefs = map[AchievementType]achievementDef{
	FirstSession:   {CategoryCount, MetricTotalSessions, 1, "First Steps", "Complete your first session"},
	Sessions10:     {CategoryCount, MetricTotalSessions, 10, "Getting Started", "Complete 10 sessions"},
	Sessions50:     {CategoryCount, MetricTotalSessions, 50, "Dedicated", "Complete 50 sessions"},
	Sessions100:    {CategoryCount, MetricTotalSessions, 100, "Centurion", "Complete 100 sessions"},
	Streak3Days:    {CategoryStreak, MetricCurrentStreak, 3, "Warming Up", "Practise 3 days in a row"},
	Streak7Days:    {CategoryStreak, MetricCurrentStreak, 7, "One Week", "Practise 7 days in a row"},
	Streak14Days:   {CategoryStreak, MetricCurrentStreak, 14, "Fortnight", "Practise 14 days in a row"},
	Streak30Days:   {CategoryStreak, MetricCurrentStreak, 30, "Monthly Habit", "Practise 30 days in a row"},
	Streak100Days:  {CategoryStreak, MetricCurrentStreak, 100, "Unshakeable", "Practise 100 days in a row"},
	Minutes60:      {CategoryDuration, MetricTotalMinutes, 60, "First Hour", "Practise for 60 minutes in total"},
	Minutes300:     {CategoryDuration, MetricTotalMinutes, 300, "Five Hours", "Practise for 300 minutes in total"},
	Minutes1000:    {CategoryDuration, MetricTotalMinutes, 1000, "Thousand Minutes", "Practise for 1000 minutes in total"},
	FirstFocus:     {CategoryFocus, MetricFocusSessions, 1, "In the Zone", "Finish your first focus interval"},
	Focus10:        {CategoryFocus, MetricFocusSessions, 10, "Deep Worker", "Finish 10 focus intervals"},
	Focus50:        {CategoryFocus, MetricFocusSessions, 50, "Flow State", "Finish 50 focus intervals"},
	FirstBreathing: {CategoryBreathing, MetricBreathingSessions, 1, "First Breath", "Complete a breathing exercise"},
	Breathing25:    {CategoryBreathing, MetricBreathingSessions, 25, "Breath Master", "Complete 25 breathing exercises"},
	EarlyBird:      {CategorySpecial, MetricEarlyBirdSessions, 5, "Early Bird", "Start 5 sessions before 8am"},
	NightOwl:       {CategorySpecial, MetricNightOwlSessions, 5, "Night Owl", "Start 5 sessions after 10pm"},
	WeekendWarrior: {CategorySpecial, MetricWeekendStreaks, 4, "Weekend Warrior", "Practise on both weekend days 4 weekends running"},
	TreeFullyGrown: {CategorySpecial, MetricTreeLevel, 5, "Full Bloom", "Grow your tree to the final level"},
}

func (t AchievementType) Category() AchievementCategory { return achievementDefs[t].category }
func (t AchievementType) Metric() Metric                { return achievementDefs[t].metric }
func (t AchievementType) Target() int                   { return achievementDefs[t].target }
func (t AchievementType) Title() string                 { return achievementDefs[t].title }
func (t AchievementType) Description() string           { return achievementDefs[t].description }

// Valid reports whether t is a known type.
func (t AchievementType) Valid() bool {
	_, ok := achievementDefs[t]
	return ok
}

// Achievement is the stored state of one type. UnlockedAt is zero while locked.
type Achievement struct {
	Type       AchievementType `json:"type"`
	Unlocked   bool            `json:"unlocked"`
	UnlockedAt time.Time       `json:"unlocked_at,omitempty"`
	Progress   int             `json:"progress"`
	Target     int             `json:"target"`
}

// NewAchievement returns the locked, zero-progress seed for t.
func NewAchievement(t AchievementType) Achievement {
	return Achievement{Type: t, Target: t.Target()}
}
