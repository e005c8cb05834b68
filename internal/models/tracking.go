package models

import (
	"strings"
	"time"
)

// AdviceCategory groups trackable advice for effectiveness statistics
type AdviceCategory string

const (
	CategorySleep    AdviceCategory = "sleep"
	CategoryExercise AdviceCategory = "exercise"
	CategoryDiet     AdviceCategory = "diet"
	CategoryEmotion  AdviceCategory = "emotion"
	CategorySymptom  AdviceCategory = "symptom"
	CategoryOther    AdviceCategory = "other"
)

// Keyword table for InferCategory, checked in order
var categoryKeywords = []struct {
	category AdviceCategory
	keywords []string
}{
	{CategorySleep, []string{"sleep", "bed", "nap", "insomnia", "睡眠", "睡觉", "入睡", "失眠"}},
	{CategoryExercise, []string{"exercise", "steps", "walk", "activity", "stretch", "运动", "步数", "散步", "活动"}},
	{CategoryDiet, []string{"diet", "meal", "eating", "breakfast", "water", "food", "饮食", "吃", "饮水", "食物"}},
	{CategoryEmotion, []string{"mood", "emotion", "anxiety", "relax", "stress", "情绪", "心情", "焦虑", "放松"}},
	{CategorySymptom, []string{"headache", "pain", "discomfort", "symptom", "头痛", "疼痛", "不适", "症状"}},
}

// InferCategory guesses the category of an advice line from its text
func InferCategory(text string) AdviceCategory {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return CategoryOther
}

// AdviceField names the payload list an advice line came from
type AdviceField string

const (
	FieldObservation   AdviceField = "observation"
	FieldAction        AdviceField = "action"
	FieldTomorrowFocus AdviceField = "tomorrow_focus"
)

// Feedback is the user's reaction to a tracked advice line
type Feedback string

const (
	FeedbackHelpful    Feedback = "helpful"
	FeedbackNotHelpful Feedback = "not_helpful"
	FeedbackExecuted   Feedback = "executed"
	FeedbackDismissed  Feedback = "dismissed"
)

// AdviceTracking is one advice line saved for feedback collection
type AdviceTracking struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	EntryID            string         `json:"entry_id"`
	AdviceText         string         `json:"advice_text"`
	GeneratedDate      string         `json:"generated_date"`
	Category           AdviceCategory `json:"category"`
	SourceField        AdviceField    `json:"source_field"`
	UserFeedback       *Feedback      `json:"user_feedback,omitempty"`
	FeedbackAt         *time.Time     `json:"feedback_at,omitempty"`
	EffectivenessScore *int           `json:"effectiveness_score,omitempty"`
	ExecutionNote      *string        `json:"execution_note,omitempty"`
}

// FeedbackRequest is the body of POST /tracking/:id/feedback.
// ExecutionNote distinguishes "absent" from an explicit null that clears the note.
type FeedbackRequest struct {
	Feedback           Feedback       `json:"feedback" binding:"required,oneof=helpful not_helpful executed dismissed"`
	EffectivenessScore *int           `json:"effectiveness_score"`
	ExecutionNote      NullableString `json:"execution_note"`
}

// CategoryEffectiveness is the per-category part of an effectiveness summary
type CategoryEffectiveness struct {
	Category     AdviceCategory `json:"category"`
	Executed     int            `json:"executed"`
	AverageScore *float64       `json:"average_score,omitempty"`
}

// EffectivenessSummary describes how well previously executed advice worked
type EffectivenessSummary struct {
	ExecutedCount int                     `json:"executed_count"`
	AverageScore  *float64                `json:"average_score,omitempty"`
	Categories    []CategoryEffectiveness `json:"categories"`
	TopRated      []AdviceTracking        `json:"top_rated"`
}
