package aqi

// Recommendation is health advice for one audience.
type Recommendation struct {
	Group  string
	Advice string
}

var recommendations = map[Level][]Recommendation{
	LevelGood: {
		{Group: "General Public", Advice: "Air quality is satisfactory. Enjoy outdoor activities!"},
		{Group: "Sensitive Groups", Advice: "No special precautions needed."},
	},
	LevelModerate: {
		{Group: "General Public", Advice: "Air quality is acceptable. Unusually sensitive people should consider reducing prolonged outdoor exertion."},
		{Group: "Sensitive Groups", Advice: "Consider reducing prolonged or heavy outdoor activities if you experience symptoms."},
	},
	LevelUnhealthy: {
		{Group: "General Public", Advice: "Reduce prolonged or heavy outdoor exertion. Take more breaks during outdoor activities."},
		{Group: "Sensitive Groups", Advice: "Avoid prolonged or heavy outdoor activities. Keep outdoor activities short. Consider moving activities indoors."},
		{Group: "Children & Elderly", Advice: "Limit time outdoors. Use air purifiers indoors if available."},
	},
	LevelVeryUnhealthy: {
		{Group: "General Public", Advice: "Avoid prolonged or heavy outdoor activities. Move activities indoors or reschedule."},
		{Group: "Sensitive Groups", Advice: "Avoid all outdoor physical activities. Stay indoors and keep activity levels low."},
		{Group: "Everyone", Advice: "Wear N95 masks if you must go outside. Use air purifiers indoors."},
	},
	LevelHazardous: {
		{Group: "Everyone", Advice: "Remain indoors and keep activity levels low. Run air purifiers if available."},
		{Group: "Everyone", Advice: "Avoid all outdoor activities. Wear N95 masks if you must go outside."},
		{Group: "Emergency", Advice: "This is a health emergency. Follow local advisories. Seek medical attention if experiencing symptoms."},
	},
}

// Recommendations returns the advice for a level. Unknown levels get the
// advice for LevelGood.
func Recommendations(l Level) []Recommendation {
	recs, ok := recommendations[l]
	if !ok {
		recs = recommendations[LevelGood]
	}
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}

// OverallLevel returns the most severe of levels, or LevelGood if none are given.
func OverallLevel(levels ...Level) Level {
	overall := LevelGood
	for _, l := range levels {
		if l > overall {
			overall = l
		}
	}
	return overall
}
