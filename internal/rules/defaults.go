package rules

import "github.com/JonnyWalker81/heldairy/backend/internal/models"

// Rule ids of the built-in rule table
const (
	RuleSleepCritical     = "sleep_critical_lt_5h"
	RuleSleepInsufficient = "sleep_insufficient_5_6h"
	RuleExerciseZero      = "exercise_zero"
	RulePainSevere        = "pain_severe_gt_7"
	RuleMoodLow           = "mood_low_lt_3"
	RuleDietIrregular     = "diet_irregular_lt_2_meals"
	RuleWaterInsufficient = "water_insufficient_lt_800ml"
	RuleSleepQualityPoor  = "sleep_quality_poor_lt_5"
)

// Question ids read by the built-in rules
const (
	QuestionSleepDuration     = "sleep_duration"
	QuestionSleepQuality      = "sleep_quality"
	QuestionExerciseDuration  = "exercise_duration"
	QuestionExerciseFrequency = "exercise_frequency"
	QuestionPainLevel         = "pain_level"
	QuestionMoodScore         = "mood_score"
	QuestionMealCount         = "meal_count"
	QuestionWaterIntake       = "water_intake"
)

// DefaultRules returns the built-in rule table. Missing answers take a
// neutral default so that an unanswered question never triggers a rule.
func DefaultRules() *RuleSet {
	return MustRuleSet(
		Rule{
			ID:       RuleSleepCritical,
			Category: "sleep",
			Priority: 10,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				return a.NumberOr(QuestionSleepDuration, 7) < 5
			},
			Advice: models.AdvicePayload{
				Observations: []string{"You slept less than 5 hours, which is too little for your body to recover."},
				Actions: []string{
					"Go to bed an hour earlier tonight and aim for a full 7 hours.",
					"Put the phone away an hour before bed; a warm foot soak can help you wind down.",
					"If you sleep badly three nights in a row, consider seeing a doctor.",
				},
				TomorrowFocus: []string{"Note when you fell asleep, when you woke up and how you felt."},
			},
		},
		Rule{
			ID:       RuleSleepInsufficient,
			Category: "sleep",
			Priority: 5,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				h := a.NumberOr(QuestionSleepDuration, 7)
				return h >= 5 && h <= 6
			},
			Advice: models.AdvicePayload{
				Observations: []string{"You slept a little short last night (5-6 hours)."},
				Actions: []string{
					"Try getting into bed 30 minutes earlier tonight.",
					"If you nap, keep it to 20-30 minutes so it does not cost you sleep tonight.",
				},
				TomorrowFocus: []string{"Check whether your sleep time improves."},
			},
		},
		Rule{
			ID:       RuleExerciseZero,
			Category: "exercise",
			Priority: 6,
			When: func(a Answers, week *models.SummaryWindow) bool {
				todayZero := a.NumberOr(QuestionExerciseDuration, 30) == 0 ||
					a.NumberOr(QuestionExerciseFrequency, 1) == 0
				m := week.Metric(QuestionExerciseDuration)
				return todayZero && m != nil && m.Average < 15
			},
			Advice: models.AdvicePayload{
				Observations: []string{"You have been moving very little lately."},
				Actions: []string{
					"Start small: a 15-20 minute walk after a meal already counts.",
					"Pick an activity you enjoy, such as swimming, cycling or yoga.",
					"Set a small goal of moving at least twice this week.",
				},
				TomorrowFocus: []string{"Record whether you managed your activity plan."},
			},
		},
		Rule{
			ID:       RulePainSevere,
			Category: "pain",
			Priority: 10,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				return a.NumberOr(QuestionPainLevel, 0) > 7
			},
			Advice: models.AdvicePayload{
				Observations: []string{"Your pain is severe today (above 7), so it deserves close attention."},
				Actions: []string{
					"Write down where it hurts and how long it lasts.",
					"Rest today and avoid strenuous activity.",
					"Try a cold or warm compress, whichever suits the kind of pain.",
				},
				TomorrowFocus: []string{"Check whether the pain has eased."},
				RedFlags:      []string{"If the pain keeps getting worse, comes with fever or limits your movement, seek medical care"},
			},
		},
		Rule{
			ID:       RuleMoodLow,
			Category: "mood",
			Priority: 7,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				return a.NumberOr(QuestionMoodScore, 5) < 3
			},
			Advice: models.AdvicePayload{
				Observations: []string{"Your mood is low today (below 3)."},
				Actions: []string{
					"Do something you enjoy: music, a book or a little sunshine.",
					"Talk with a friend or family member you trust.",
					"Keep regular sleep and wake times, and try not to stay alone with it for too long.",
				},
				TomorrowFocus: []string{"Notice whether your mood lifts and what affected it."},
				RedFlags:      []string{"If low mood lasts more than two weeks or thoughts of self-harm appear, seek medical care"},
			},
		},
		Rule{
			ID:       RuleDietIrregular,
			Category: "diet",
			Priority: 4,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				return a.NumberOr(QuestionMealCount, 3) < 2
			},
			Advice: models.AdvicePayload{
				Observations: []string{"You ate fewer than two meals today, which may leave you short on nutrition."},
				Actions: []string{
					"Aim for three regular meals tomorrow, even small ones.",
					"Keep healthy snacks such as nuts or fruit nearby.",
					"Drink enough water, around 1500-2000 ml a day.",
				},
				TomorrowFocus: []string{"Record your meal times and appetite."},
			},
		},
		Rule{
			ID:       RuleWaterInsufficient,
			Category: "diet",
			Priority: 3,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				return a.NumberOr(QuestionWaterIntake, 1500) < 800
			},
			Advice: models.AdvicePayload{
				Observations: []string{"You drank very little water today (under 800 ml)."},
				Actions: []string{
					"Set a reminder to drink a glass (about 200 ml) every two hours.",
					"Carry a water bottle so a sip is always at hand.",
					"Prefer warm water or light tea over sugary drinks.",
				},
				TomorrowFocus: []string{"Track how much water you drink in total."},
			},
		},
		Rule{
			ID:       RuleSleepQualityPoor,
			Category: "sleep",
			Priority: 6,
			When: func(a Answers, _ *models.SummaryWindow) bool {
				return a.NumberOr(QuestionSleepQuality, 7) < 5
			},
			Advice: models.AdvicePayload{
				Observations: []string{"Your sleep quality was poor last night (below 5)."},
				Actions: []string{
					"Keep the bedroom quiet and dark, ideally at 18-22°C.",
					"Avoid coffee and alcohol before bed.",
					"Build a short bedtime ritual such as meditation or soft music.",
				},
				TomorrowFocus: []string{"Check whether your sleep quality improves."},
			},
		},
	)
}
