package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

// NoTopPriority is reported when the owner has no tasks at all.
const NoTopPriority = "N/A"

// Summary holds the dashboard figures for one owner.
type Summary struct {
	Total              int            `json:"total"`
	Completed          int            `json:"completed"`
	Overdue            int            `json:"overdue"`
	CompletionRate     float64        `json:"completion_rate"`      // percent, one decimal
	AvgCompletionHours float64        `json:"avg_completion_hours"` // two decimals
	TopPriority        string         `json:"top_priority"`
	ByPriority         map[string]int `json:"by_priority"`
	ByCategory         map[string]int `json:"by_category"`
}

// Summarize aggregates the tasks belonging to ownerID as seen at now.
// Tasks owned by anyone else are ignored, so callers may pass a wider
// snapshot without skewing the result.
func Summarize(ownerID uuid.UUID, tasks []*domain.Task, now time.Time) Summary {
	summary := Summary{
		TopPriority: NoTopPriority,
		ByPriority:  map[string]int{},
		ByCategory:  map[string]int{},
	}

	var completionHours float64
	var timedCompletions int

	for _, task := range tasks {
		if task == nil || task.UserID != ownerID {
			continue
		}

		summary.Total++
		summary.ByPriority[string(task.Priority)]++
		summary.ByCategory[task.Category]++

		if task.IsCompleted() {
			summary.Completed++
		}
		if domain.IsOverdue(task, now) {
			summary.Overdue++
		}
		if task.CompletedAt != nil {
			completionHours += task.CompletedAt.Sub(task.CreatedAt).Hours()
			timedCompletions++
		}
	}

	summary.CompletionRate = CompletionRate(summary.Completed, summary.Total)

	if summary.Completed > 0 && timedCompletions > 0 {
		summary.AvgCompletionHours = roundTo(completionHours/float64(timedCompletions), 2)
	}

	if summary.Total > 0 {
		summary.TopPriority = TopPriority(summary.ByPriority)
	}

	return summary
}

// CompletionRate returns completed/total as a percentage rounded to one
// decimal place, or 0 when total is 0.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return roundTo(float64(completed)/float64(total)*100, 1)
}

// TopPriority returns the most frequent priority in counts.
//
// Ties are broken by severity (High, then Medium, then Low) and then by
// lexical order for any free-form values, so the answer never depends on
// map iteration or storage order. An empty map yields NoTopPriority.
func TopPriority(counts map[string]int) string {
	if len(counts) == 0 {
		return NoTopPriority
	}

	priorities := make([]string, 0, len(counts))
	for p := range counts {
		priorities = append(priorities, p)
	}

	sort.Slice(priorities, func(i, j int) bool {
		a, b := priorities[i], priorities[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if severity(a) != severity(b) {
			return severity(a) > severity(b)
		}
		return a < b
	})

	return priorities[0]
}

func severity(p string) int {
	switch domain.Priority(p) {
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	case domain.PriorityLow:
		return 1
	default:
		return 0
	}
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
