package scoring

// Label is one of the five Likert answers a user can pick.
type Label string

const (
	StronglyAgree    Label = "Strongly Agree"
	Agree            Label = "Agree"
	Disagree         Label = "Disagree"
	StronglyDisagree Label = "Strongly Disagree"
	DontKnow         Label = "I Don't Know"
)

// Labels lists the closed vocabulary in display order.
var Labels = []Label{StronglyAgree, Agree, Disagree, StronglyDisagree, DontKnow}

// MaxWeight is the weight of the strongest positive answer.
const MaxWeight = 2

// Weight maps a label to its signed contribution. Anything outside the
// vocabulary, including DontKnow, is neutral.
func Weight(l Label) int {
	switch l {
	case StronglyAgree:
		return 2
	case Agree:
		return 1
	case Disagree:
		return -1
	case StronglyDisagree:
		return -2
	default:
		return 0
	}
}

// Valid reports whether s is one of the five labels.
func Valid(s string) bool {
	for _, l := range Labels {
		if string(l) == s {
			return true
		}
	}
	return false
}
