package validate

import "github.com/coursetable/DeLorean/internal/model"

// presence is the per-course state tracked while replaying a timeline.
type presence int

const (
	absent presence = iota
	present
)

func (p presence) String() string {
	if p == present {
		return "present"
	}
	return "absent"
}

// transitionKey pairs the current presence state with an incoming event kind.
type transitionKey struct {
	state presence
	kind  model.Kind
}

// transitions is the full legality table. Keys missing from the map are
// illegal; violationKinds names the failure for each illegal pair.
var transitions = map[transitionKey]presence{
	{absent, model.KindAdded}:     present,
	{present, model.KindRemoved}:  absent,
	{present, model.KindModified}: present,
}

var violationKinds = map[transitionKey]ViolationKind{
	{present, model.KindAdded}:   DoubleAdd,
	{absent, model.KindRemoved}:  RemoveBeforeAdd,
	{absent, model.KindModified}: ModifyBeforeAdd,
}
