package model

// QuizChoiceCount is the fixed number of answer options per question.
const QuizChoiceCount = 4

type QuizItem struct {
	Question                 string   `json:"question"`
	Choices                  []string `json:"choices"`
	CorrectIndex             int      `json:"correctIndex"`
	Explanation              string   `json:"explanation"`
	ReferenceConsiderationID string   `json:"referenceConsiderationId,omitempty"`
}

type QuestionGrade struct {
	Index        int    `json:"index"`
	Answer       int    `json:"answer"`
	CorrectIndex int    `json:"correctIndex"`
	Correct      bool   `json:"correct"`
	Explanation  string `json:"explanation,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

type QuizGrade struct {
	Questions []QuestionGrade `json:"questions"`
	Score     int             `json:"score"`
	Total     int             `json:"total"`
}
