package conversation

import "strings"

// Mood and topic detection is a coarse keyword pass over the inbound text.
// The labels feed the session snapshot so generated replies can stay on
// subject; they carry no clinical meaning. Matching walks the order slices
// so results stay deterministic, first label wins.

var moodOrder = []string{"anxious", "sad", "angry", "lonely", "tired", "hopeful"}

var moodMarkers = map[string][]string{
	"anxious": {"anxious", "anxiety", "panic", "nervous", "scared", "worried", "stressed", "overwhelmed"},
	"sad":     {"sad", "depressed", "crying", "cried", "miserable", "heartbroken", "grief"},
	"angry":   {"angry", "furious", "mad at", "pissed", "frustrated"},
	"lonely":  {"lonely", "alone", "no one", "nobody"},
	"tired":   {"tired", "exhausted", "can't sleep", "cant sleep", "insomnia"},
	"hopeful": {"feeling better", "hopeful", "good day", "proud of", "improving"},
}

var topicOrder = []string{"school", "work", "family", "relationship", "health", "money"}

var topicMarkers = map[string][]string{
	"school":       {"school", "class", "exam", "homework", "college", "teacher", "grades"},
	"work":         {"work", "my job", "boss", "coworker", "shift", "fired", "laid off"},
	"family":       {"family", "my mom", "my dad", "mother", "father", "brother", "sister", "parents"},
	"relationship": {"boyfriend", "girlfriend", "partner", "husband", "wife", "breakup", "broke up", "my ex"},
	"health":       {"doctor", "sick", "diagnosis", "hospital", "meds", "medication"},
	"money":        {"money", "rent", "bills", "debt", "evicted", "afford"},
}

// deriveMood guesses a coarse mood from the message text. Empty means no
// signal and the session keeps its previous mood.
func deriveMood(text string) string {
	return firstMatch(text, moodOrder, moodMarkers)
}

// deriveTopic guesses what the message is about. Empty means no signal.
func deriveTopic(text string) string {
	return firstMatch(text, topicOrder, topicMarkers)
}

func firstMatch(text string, order []string, markers map[string][]string) string {
	lower := strings.ToLower(text)
	for _, label := range order {
		for _, marker := range markers[label] {
			if strings.Contains(lower, marker) {
				return label
			}
		}
	}
	return ""
}
