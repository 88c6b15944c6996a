package version

import (
	"github.com/blang/semver"
)

var CURRENT_VERSION = semver.MustParse("1.3.0")

//	Oldest client release whose request grammar this server still reads.
var MIN_CLIENT_VERSION = semver.MustParse("1.0.0")

func String() string {
	return CURRENT_VERSION.String()
}

//	IsCompatible reports whether a client reporting v can talk to this build.
func IsCompatible(v string) bool {
	parsed, err := semver.Parse(v)
	if err != nil {
		return false
	}
	return parsed.GTE(MIN_CLIENT_VERSION) && parsed.Major == CURRENT_VERSION.Major
}
