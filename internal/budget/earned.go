package budget

// Activity types with dedicated earning rates. Unknown types fall
// back to the default rate.
const (
	ActivityCoding   = "coding"
	ActivityReading  = "reading"
	ActivityCourse   = "course"
	ActivityExercise = "exercise"
)

// EarnedMinutes converts a logged learning activity into gaming
// minutes at an activity-specific rate. It is a pure function so the
// activity-logging layer can compute the credit at creation time:
// coding and courses earn 1:4, reading 1:6, exercise 1:3, anything
// else 1:5. Integer division floors the result.
func EarnedMinutes(activityType string, durationMinutes int) int {
	switch activityType {
	case ActivityCoding:
		return durationMinutes / 4
	case ActivityReading:
		return durationMinutes / 6
	case ActivityCourse:
		return durationMinutes / 4
	case ActivityExercise:
		return durationMinutes / 3
	default:
		return durationMinutes / 5
	}
}
