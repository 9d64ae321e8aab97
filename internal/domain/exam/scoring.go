package exam

// ScoreResult is the outcome of grading one set of answers against the
// question bank.
type ScoreResult struct {
	// Score - points earned.
	Score int

	// TotalPoints - sum of points across auto-scorable questions.
	TotalPoints int

	// Percentage - 100 * Score / TotalPoints, 0 when nothing is scorable.
	Percentage float64

	// Correct - number of correctly answered questions.
	Correct int

	// Answered - number of auto-scorable questions that received an answer.
	Answered int
}

// Score grades answers against the exam's questions. Multiple choice
// questions are compared by exact match and award their full points or
// zero; free text questions are skipped entirely - they are graded by
// manual review outside this core and contribute nothing to TotalPoints.
func Score(questions []Question, answers map[string]string) ScoreResult {
	var result ScoreResult

	for _, q := range questions {
		if !q.Type.IsAutoScorable() {
			continue
		}

		result.TotalPoints += q.Points

		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		result.Answered++

		if answer == q.CorrectAnswer {
			result.Score += q.Points
			result.Correct++
		}
	}

	if result.TotalPoints > 0 {
		result.Percentage = 100 * float64(result.Score) / float64(result.TotalPoints)
	}

	return result
}
