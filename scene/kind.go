package scene

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind tags a component and selects how its payload is applied.
// KindNone terminates the kind list of a Mirror.
type Kind int32

const (
	KindNone Kind = iota
	KindTranslate
	KindRotate
	KindScale
)

var kindNames = [...]string{
	KindNone:      "none",
	KindTranslate: "translate",
	KindRotate:    "rotate",
	KindScale:     "scale",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindNone, errors.Errorf("unknown transform kind %q", s)
}
