package task

import "github.com/google/uuid"

// Task rows are owned by the plans/tasks CRUD surface; this service only
// reads aggregate counts from them.

// PlanProgress summarizes one study plan inside an analytics report.
type PlanProgress struct {
	PlanID          uuid.UUID `json:"plan_id" db:"plan_id"`
	Name            string    `json:"name" db:"name"`
	TotalTasks      int       `json:"total_tasks" db:"total_tasks"`
	CompletedTasks  int       `json:"completed_tasks" db:"completed_tasks"`
	ProgressPercent int       `json:"progress_percent"`
}
