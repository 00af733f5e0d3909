package api

import "strings"

// PredictRequest is the body of a POST /predict call.
type PredictRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// PredictResponse carries the model's answer for a single
// multiple-choice question.
type PredictResponse struct {
	PredictedAnswer string  `json:"predicted_answer"`
	Confidence      float64 `json:"confidence"`
}

// FormatQuestion renders a question and its options as a single
// prompt block: the question text followed by one option per line.
func FormatQuestion(question string, options []string) string {
	if len(options) == 0 {
		return question
	}
	return question + "\n" + strings.Join(options, "\n")
}

// Question is a single multiple-choice question with its labelled answer.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuestionSet groups questions by chapter, mirroring the layout of the
// processed questions file.
type QuestionSet map[string][]Question

// Flatten returns all questions from every chapter as a single list.
func (qs QuestionSet) Flatten() []Question {
	questions := make([]Question, 0)
	for _, chapter := range qs {
		questions = append(questions, chapter...)
	}
	return questions
}
