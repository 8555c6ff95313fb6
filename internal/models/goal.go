package models

// GoalPercents допустимые значения цели посещаемости
var GoalPercents = []int{50, 60, 70, 80, 90, 100}

const DefaultGoalPercent = 60

func IsValidGoal(goal int) bool {
	for _, g := range GoalPercents {
		if g == goal {
			return true
		}
	}
	return false
}
