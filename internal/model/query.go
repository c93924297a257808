package model

// ExamListQuery filters a student's exam listing by derived status.
type ExamListQuery struct {
	Status string `form:"status" binding:"omitempty,exam_status"`
}

// PageQuery carries optional pagination parameters.
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}
