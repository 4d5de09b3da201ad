package mustache

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// htmlEscape is the default escaper for {{name}} interpolations.
var htmlEscape = html.EscapeString

var (
	rawPolicyOnce sync.Once
	rawPolicy     *bluemonday.Policy
)

// DefaultRawPolicy returns a shared bluemonday policy suitable for
// user-generated content flowing through raw interpolations: common
// formatting and link elements survive, scripts and event handlers do not.
// Pass it to WithRawSanitizer; raw output is unfiltered without one.
func DefaultRawPolicy() *bluemonday.Policy {
	rawPolicyOnce.Do(func() {
		rawPolicy = bluemonday.UGCPolicy()
	})
	return rawPolicy
}
