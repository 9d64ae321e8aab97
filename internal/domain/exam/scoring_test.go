package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleQuestions() []Question {
	return []Question{
		{ID: "q1", Type: QuestionTypeMultipleChoice, CorrectAnswer: "b", Points: 10},
		{ID: "q2", Type: QuestionTypeTrueFalse, CorrectAnswer: "true", Points: 5},
		{ID: "q3", Type: QuestionTypeMultipleChoice, CorrectAnswer: "a", Points: 10},
		{ID: "q4", Type: QuestionTypeFreeText, Points: 20},
	}
}

func TestScore_AllCorrect(t *testing.T) {
	result := Score(sampleQuestions(), map[string]string{
		"q1": "b",
		"q2": "true",
		"q3": "a",
	})

	assert.Equal(t, 25, result.Score)
	assert.Equal(t, 25, result.TotalPoints)
	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, 3, result.Correct)
	assert.Equal(t, 3, result.Answered)
}

func TestScore_PartiallyCorrect(t *testing.T) {
	result := Score(sampleQuestions(), map[string]string{
		"q1": "b",
		"q2": "false",
		"q3": "c",
	})

	assert.Equal(t, 10, result.Score)
	assert.Equal(t, 25, result.TotalPoints)
	assert.Equal(t, 40.0, result.Percentage)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 3, result.Answered)
}

func TestScore_FreeTextExcluded(t *testing.T) {
	// Free text answers contribute nothing to the automatic score, even
	// when answered.
	result := Score(sampleQuestions(), map[string]string{
		"q4": "a long essay about coffee roasting",
	})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 25, result.TotalPoints)
	assert.Equal(t, 0, result.Answered)
}

func TestScore_UnansweredQuestions(t *testing.T) {
	result := Score(sampleQuestions(), map[string]string{"q1": "b"})

	assert.Equal(t, 10, result.Score)
	assert.Equal(t, 1, result.Answered)
	assert.InDelta(t, 40.0, result.Percentage, 0.001)
}

func TestScore_UnknownAnswerKeysIgnored(t *testing.T) {
	result := Score(sampleQuestions(), map[string]string{
		"q1":      "b",
		"unknown": "b",
	})

	assert.Equal(t, 10, result.Score)
	assert.Equal(t, 1, result.Answered)
}

func TestScore_NoScorableQuestions(t *testing.T) {
	questions := []Question{
		{ID: "q1", Type: QuestionTypeFreeText, Points: 50},
	}

	result := Score(questions, map[string]string{"q1": "answer"})

	assert.Equal(t, 0, result.TotalPoints)
	assert.Equal(t, 0.0, result.Percentage)
}

func TestScore_EmptyAnswers(t *testing.T) {
	result := Score(sampleQuestions(), nil)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 25, result.TotalPoints)
	assert.Equal(t, 0.0, result.Percentage)
}
