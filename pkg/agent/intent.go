/*
Package agent is the interactive memory agent: it classifies each line of
user input, stores or clears memory records, and answers questions from
retrieved memory and content with the reasoning model.
*/
package agent

import "strings"

type Intent int

const (
	IntentQuestion Intent = iota
	IntentRemember
	IntentClear
	IntentExit
)

func (intent Intent) String() string {
	switch intent {
	case IntentRemember:
		return "remember"
	case IntentClear:
		return "clear"
	case IntentExit:
		return "exit"
	}

	return "question"
}

/*
Command is a classified input line. Payload holds the text to remember for
IntentRemember and the whole line for IntentQuestion.
*/
type Command struct {
	Intent  Intent
	Payload string
}

/*
Rule recognizes one intent. Match receives the trimmed line and its
lower-cased form, and reports the payload when the line matches.
*/
type Rule struct {
	Intent Intent
	Match  func(line, lower string) (string, bool)
}

func keyword(words ...string) func(string, string) (string, bool) {
	return func(_, lower string) (string, bool) {
		for _, word := range words {
			if lower == word {
				return "", true
			}
		}

		return "", false
	}
}

func prefix(word string) func(string, string) (string, bool) {
	return func(line, lower string) (string, bool) {
		if lower == word {
			return "", true
		}

		if strings.HasPrefix(lower, word+" ") {
			return strings.TrimSpace(line[len(word)+1:]), true
		}

		return "", false
	}
}

/*
Rules is walked in order; the first match wins. Lines matching no rule are
questions.
*/
var Rules = []Rule{
	{Intent: IntentExit, Match: keyword("exit", "quit", "q")},
	{Intent: IntentClear, Match: keyword("clear")},
	{Intent: IntentRemember, Match: prefix("remember")},
}

/*
Classify maps an input line onto a Command. Keywords are matched without
regard to case; the remembered text keeps its original case.
*/
func Classify(line string) Command {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)

	for _, rule := range Rules {
		if payload, ok := rule.Match(line, lower); ok {
			return Command{Intent: rule.Intent, Payload: payload}
		}
	}

	return Command{Intent: IntentQuestion, Payload: line}
}
