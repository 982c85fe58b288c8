package runner

import "strings"

// Policy answers a confirmation prompt without asking the user.
// It returns decided=false to defer to the next policy or to the prompt.
type Policy func(prompt string, def bool) (decided bool, answer bool)

// MultiPolicy chains policies. The first policy that decides wins.
func MultiPolicy(policies ...Policy) Policy {
	return func(prompt string, def bool) (bool, bool) {
		for _, policy := range policies {
			if policy == nil {
				continue
			}
			if decided, answer := policy(prompt, def); decided {
				return true, answer
			}
		}
		return false, false
	}
}

// AutoApprove answers yes to everything.
func AutoApprove() Policy {
	return func(string, bool) (bool, bool) { return true, true }
}

// AcceptDefaults answers every prompt with its default.
func AcceptDefaults() Policy {
	return func(_ string, def bool) (bool, bool) { return true, def }
}

// DenyMatching answers no to prompts containing any of the given fragments.
func DenyMatching(fragments ...string) Policy {
	return func(prompt string, _ bool) (bool, bool) {
		plain := StripMarkup(prompt)
		for _, f := range fragments {
			if f != "" && strings.Contains(plain, f) {
				return true, false
			}
		}
		return false, false
	}
}

// parseAnswer interprets a line typed at a y/n prompt. An empty line takes
// the default; anything not starting with y or n is rejected.
func parseAnswer(line string, def bool) (answer bool, ok bool) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return def, true
	}
	switch line[0] {
	case 'y':
		return true, true
	case 'n':
		return false, true
	}
	return false, false
}
