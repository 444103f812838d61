package model

import "time"

// KeyEntry is one line of the answer key: question number and correct letter.
type KeyEntry struct {
	Number int    `json:"number" yaml:"number"`
	Letter string `json:"letter" yaml:"letter"`
}

// RunRecord is a ledger entry describing one assembled exam.
type RunRecord struct {
	ID                string     `json:"id"`
	Output            string     `json:"output"`
	Seed              int64      `json:"seed"`
	SourcePath        string     `json:"source_path"`
	SourceHash        string     `json:"source_hash"`
	NumQuestions      int        `json:"num_questions"`
	ShuffledQuestions bool       `json:"shuffled_questions"`
	ShuffledChoices   bool       `json:"shuffled_choices"`
	PDFPath           string     `json:"pdf_path,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	Key               []KeyEntry `json:"key"`
}

// KeyFor builds the answer key from the final question order.
func KeyFor(set ExamSet) ([]KeyEntry, error) {
	key := make([]KeyEntry, 0, len(set.Questions))
	for i, q := range set.Questions {
		idx, err := q.CorrectIndex()
		if err != nil {
			return nil, &InvariantError{Question: i, Correct: q.countCorrect(), Err: err}
		}
		if idx >= MaxChoices {
			return nil, &InvariantError{Question: i, Correct: 1, Err: ErrTooManyChoices}
		}
		key = append(key, KeyEntry{Number: i + 1, Letter: KeyLetters[idx]})
	}
	return key, nil
}
