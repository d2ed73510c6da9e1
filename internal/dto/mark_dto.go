package dto

import "github.com/noah-isme/scientia-api/internal/models"

// MarkEntry is one score cell. Score is kept as text so blank cells can be skipped and
// malformed ones reported per row.
type MarkEntry struct {
	RegNo string `json:"reg_no"`
	Score string `json:"score"`
}

// MarkUploadRequest submits one subject's scores for an exam.
type MarkUploadRequest struct {
	ClassID     uint        `json:"class_id" validate:"required"`
	SubjectName string      `json:"subject_name" validate:"required,max=128"`
	ExamName    string      `json:"exam_name" validate:"required,max=128"`
	TotalMarks  float64     `json:"total_marks" validate:"gt=0"`
	PassMark    float64     `json:"pass_mark" validate:"gte=0"`
	Scores      []MarkEntry `json:"scores" validate:"required,min=1"`
}

// MarkUploadResponse reports how the batch was applied.
type MarkUploadResponse struct {
	SubjectID  uint     `json:"subject_id"`
	ExamID     uint     `json:"exam_id"`
	Inserted   int      `json:"inserted"`
	Replaced   int      `json:"replaced"`
	Skipped    int      `json:"skipped"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors"`
}

// MarkUpdateRequest edits a single stored score.
type MarkUpdateRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0"`
}

// MarkDeleteRequest removes a subject's marks for an exam, optionally for one student only.
type MarkDeleteRequest struct {
	ClassID     uint   `json:"class_id" validate:"required"`
	ExamID      uint   `json:"exam_id" validate:"required"`
	SubjectName string `json:"subject_name" validate:"required"`
	RegNo       string `json:"reg_no"`
}

// MarkResultResponse is one row of a result sheet.
type MarkResultResponse struct {
	models.MarkResult
	Passed bool `json:"passed"`
}

// ExamResultsResponse is a result sheet for a class or a single student.
type ExamResultsResponse struct {
	Exam    models.Exam          `json:"exam"`
	Results []MarkResultResponse `json:"results"`
}

// NewMarkResultResponses decorates results with their pass flag.
func NewMarkResultResponses(results []models.MarkResult) []MarkResultResponse {
	out := make([]MarkResultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, MarkResultResponse{MarkResult: result, Passed: result.Passed()})
	}
	return out
}
